package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/seoforge/onboard/server/types"
	"github.com/seoforge/onboard/wizard"
)

// StatusResponse is the consolidated status payload for the UI.
type StatusResponse struct {
	Status      wizard.Status          `json:"status"`
	NextRefresh *time.Time             `json:"next_refresh,omitempty"`
	Server      types.ServerProperties `json:"server"`
}

// StatusHandler serves the consolidated GET /api/status endpoint.
type StatusHandler struct {
	logger  *slog.Logger
	status  StatusProvider
	refresh NextRefreshProvider
	props   types.ServerProperties
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(logger *slog.Logger, status StatusProvider, refresh NextRefreshProvider, props types.ServerProperties) *StatusHandler {
	return &StatusHandler{
		logger:  logger,
		status:  status,
		refresh: refresh,
		props:   props,
	}
}

// ServeHTTP implements http.Handler.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status: h.status.Status(),
		Server: h.props,
	}
	if h.refresh != nil {
		resp.NextRefresh = h.refresh.NextRefresh()
	}
	writeJSON(w, http.StatusOK, resp)
}
