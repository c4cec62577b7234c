package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Fahmialfayadh/mahainsight/api/config"
	"github.com/Fahmialfayadh/mahainsight/api/metrics"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/narrator"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/quota"
)

// ChatRequest is the incoming question about a post's dataset.
type ChatRequest struct {
	PostID   int    `json:"post_id"`
	Question string `json:"question"`
	Thinking bool   `json:"thinking"`
}

// Chat answers a question about a post's dataset as a server-sent event
// stream. Errors before the stream starts are plain JSON with an HTTP
// error status; once streaming has begun, failures surface as a single
// terminal error event.
//
// The quota is consumed before streaming starts, so a client disconnect
// mid-stream cannot be replayed for free. Nothing is refunded on
// upstream failure and nothing is retried: retry is the caller's call.
func Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "question is required")
		return
	}
	if req.PostID <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "post_id is required")
		return
	}
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "narration requires ANTHROPIC_API_KEY to be set")
		return
	}

	ctx := r.Context()
	userID, isAdmin := callerIdentity(r)

	post, err := fetchPost(ctx, req.PostID)
	if err != nil {
		writePostError(w, err)
		return
	}

	// Check-and-increment before any computation: quota exhaustion is
	// the cheapest possible rejection.
	remaining := config.QuotaLimit
	if isAdmin {
		slog.Info("admin question accepted without quota",
			"requestID", uuid.NewString(), "user", userID, "post", post.ID)
	} else {
		remaining, err = ledger.CheckAndIncrement(ctx, userID, datasetHandle(post))
		if errors.Is(err, quota.ErrLimitExhausted) {
			metrics.QuotaRejectionsTotal.Inc()
			writeError(w, http.StatusTooManyRequests, "quota_exhausted", "question limit reached for this article, try again later")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", internalError("failed to check quota", err))
			return
		}
	}

	ds, err := pipe.LoadDataset(ctx, datasetHandle(post), post.DataURL)
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "dataset is missing")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", internalError("failed to load dataset", err))
		return
	}

	fc, err := pipe.Analyze(ctx, ds, req.Question)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", internalError("analysis failed", err))
		return
	}
	metrics.QuestionsTotal.WithLabelValues(string(fc.Intent)).Inc()

	factsJSON, err := json.Marshal(fc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", internalError("failed to encode facts", err))
		return
	}

	sendEvent, ok := startEventStream(w)
	if !ok {
		return
	}

	var answer strings.Builder
	emit := func(ev narrator.Event) {
		if ev.Type == narrator.PhaseAnswer {
			answer.WriteString(ev.Text)
		}
		sendEvent(ev)
	}

	start := time.Now()
	err = voice.Narrate(ctx, factsJSON, req.Question, req.Thinking, emit)
	metrics.RecordAnthropicRequest("narrate", time.Since(start), err)
	if err != nil {
		// Quota stays consumed; the caller decides whether to retry.
		sendEvent(narrator.Event{Type: narrator.PhaseError, Message: "the narrator failed, please try again"})
		slog.Error("narration failed", "user", userID, "post", post.ID, "error", err)
		return
	}

	// Best effort: a failed suggestion call never fails the answer.
	fuStart := time.Now()
	followUps, fuErr := voice.FollowUps(ctx, req.Question, answer.String())
	metrics.RecordAnthropicRequest("followup", time.Since(fuStart), fuErr)
	if fuErr != nil {
		slog.Warn("follow-up generation failed", "post", post.ID, "error", fuErr)
		followUps = nil
	}

	sendEvent(narrator.Event{Type: narrator.PhaseDone, Remaining: &remaining, FollowUps: followUps})
}

// startEventStream switches the response to SSE and returns an emitter
// that writes one `data: <json>` frame per event.
func startEventStream(w http.ResponseWriter) (func(narrator.Event), bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal", "streaming not supported")
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	terminal := false
	return func(ev narrator.Event) {
		// Nothing may follow a terminal event; discard protocol violations.
		if terminal {
			return
		}
		if ev.Type == narrator.PhaseDone || ev.Type == narrator.PhaseError {
			terminal = true
		}
		data, err := json.Marshal(ev)
		if err != nil {
			slog.Error("failed to marshal stream event", "type", ev.Type, "error", err)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}, true
}

func writePostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errPostNotFound):
		writeError(w, http.StatusNotFound, "not_found", "article not found")
	case errors.Is(err, errPostNoData):
		writeError(w, http.StatusNotFound, "not_found", "article has no dataset attached")
	default:
		writeError(w, http.StatusInternalServerError, "internal", internalError("failed to fetch post", err))
	}
}
