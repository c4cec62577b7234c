package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Fahmialfayadh/mahainsight/api/config"
)

type usageResponse struct {
	Remaining int  `json:"remaining"`
	IsAdmin   bool `json:"is_admin"`
}

// Usage reports how many questions the caller has left for a post in
// the current window. Read-only, never consumes a slot.
func Usage(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.Atoi(chi.URLParam(r, "postID"))
	if err != nil || postID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid post id")
		return
	}

	ctx := r.Context()
	userID, isAdmin := callerIdentity(r)

	post, err := fetchPost(ctx, postID)
	if err != nil {
		writePostError(w, err)
		return
	}

	if isAdmin {
		writeJSON(w, http.StatusOK, usageResponse{Remaining: config.QuotaLimit, IsAdmin: true})
		return
	}

	remaining, err := ledger.Remaining(ctx, userID, datasetHandle(post))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", internalError("failed to read quota", err))
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{Remaining: remaining, IsAdmin: false})
}
