package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/Fahmialfayadh/mahainsight/api/metrics"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/narrator"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/pipeline"
)

type quizRequest struct {
	PostID int `json:"post_id"`
}

// Quiz generates multiple-choice questions grounded in a post's dataset
// facts. Quota-free, like summaries.
func Quiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PostID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "post_id is required")
		return
	}
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "quiz generation requires ANTHROPIC_API_KEY to be set")
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
	questions, err := voice.GenerateQuiz(ctx, factsJSON)
	metrics.RecordAnthropicRequest("quiz", time.Since(start), err)
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream", internalError("quiz generation failed", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string][]narrator.QuizQuestion{"questions": questions})
}

// describePost loads a post's dataset and builds its whole-dataset fact
// context, writing the error response itself on failure.
func describePost(w http.ResponseWriter, r *http.Request, postID int) (pipeline.FactContext, bool) {
	ctx := r.Context()

	post, err := fetchPost(ctx, postID)
	if err != nil {
		writePostError(w, err)
		return pipeline.FactContext{}, false
	}

	ds, err := pipe.LoadDataset(ctx, datasetHandle(post), post.DataURL)
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "dataset is missing")
		} else {
			writeError(w, http.StatusInternalServerError, "internal", internalError("failed to load dataset", err))
		}
		return pipeline.FactContext{}, false
	}

	fc, err := pipe.Describe(ctx, ds)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", internalError("analysis failed", err))
		return pipeline.FactContext{}, false
	}
	return fc, true
}
