package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/Fahmialfayadh/mahainsight/api/metrics"
)

type summaryRequest struct {
	PostID int `json:"post_id"`
}

// Summary writes a one-shot narrative overview of a post's dataset.
// Summaries are dataset-wide and question-free, so they bypass the
// question quota.
func Summary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PostID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "post_id is required")
		return
	}
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "narration requires ANTHROPIC_API_KEY to be set")
		return
	}

	ctx := r.Context()
	fc, ok := describePost(w, r, req.PostID)
	if !ok {
		return
	}

	factsJSON, err := json.Marshal(fc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", internalError("failed to encode facts", err))
		return
	}

	start := time.Now()
	summary, err := voice.Summarize(ctx, factsJSON)
	metrics.RecordAnthropicRequest("summarize", time.Since(start), err)
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream", internalError("summary generation failed", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}
