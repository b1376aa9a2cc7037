package handlers

import (
	"net/http"

	"github.com/seoforge/onboard/logging"
)

// LogsResponse is the payload for GET /api/logs.
type LogsResponse struct {
	Entries []logging.Entry `json:"entries"`
}

// LogsHandler serves the user-visible setup log stream.
type LogsHandler struct {
	logs LogProvider
}

// NewLogsHandler creates a new LogsHandler.
func NewLogsHandler(logs LogProvider) *LogsHandler {
	return &LogsHandler{logs: logs}
}

// ServeHTTP implements http.Handler.
func (h *LogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entries := h.logs.Logs()
	if entries == nil {
		entries = []logging.Entry{}
	}
	writeJSON(w, http.StatusOK, LogsResponse{Entries: entries})
}
