// Package handlers implements the HTTP surface of the AI pipeline.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/Fahmialfayadh/mahainsight/api/config"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/narrator"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/pipeline"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/quota"
)

var (
	pipe   *pipeline.Pipeline
	ledger quota.Ledger
	voice  *narrator.Narrator
)

// Init wires the handler package to its dependencies. Must be called
// once before the router starts serving.
func Init(p *pipeline.Pipeline, l quota.Ledger, n *narrator.Narrator) {
	pipe = p
	ledger = l
	voice = n
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// internalError logs the underlying error and returns a safe message for
// the client.
func internalError(message string, err error) string {
	slog.Error(message, "error", err)
	return message
}

// callerIdentity resolves who is asking. Authentication proper lives in
// front of this service; here the caller is the X-User-ID header or,
// failing that, the remote address. Admins present the configured token.
func callerIdentity(r *http.Request) (userID string, isAdmin bool) {
	userID = r.Header.Get("X-User-ID")
	if userID == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		userID = host
	}
	if config.AdminToken != "" && r.Header.Get("X-Admin-Token") == config.AdminToken {
		isAdmin = true
	}
	return userID, isAdmin
}
