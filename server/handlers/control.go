package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/seoforge/onboard/wizard"
)

// ControlAction names a run control operation.
type ControlAction string

const (
	ActionStart       ControlAction = "start"
	ActionStartFresh  ControlAction = "start-fresh"
	ActionRetry       ControlAction = "retry"
	ActionSkip        ControlAction = "skip"
	ActionRestartFrom ControlAction = "restart-from"
	ActionStopRestart ControlAction = "stop-restart-step"
	ActionStop        ControlAction = "stop"
)

// RestartFromRequest is the request body for the restart-from action.
type RestartFromRequest struct {
	Index int `json:"index"`
}

// ControlHandler dispatches one run control operation per route.
type ControlHandler struct {
	wizard WizardController
	action ControlAction
}

// NewControlHandler creates a handler for a single control action.
func NewControlHandler(w WizardController, action ControlAction) *ControlHandler {
	return &ControlHandler{wizard: w, action: action}
}

// ServeHTTP implements http.Handler. Successful control requests return
// 202 Accepted: the run itself proceeds in the background.
//
// Run-starting actions deliberately use a background context rather than
// the request context: the run outlives the HTTP request that kicked it
// off.
func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := context.Background()

	var err error
	switch h.action {
	case ActionStart:
		err = h.wizard.Start(ctx)
	case ActionStartFresh:
		if err = h.wizard.StartFresh(); err == nil {
			err = h.wizard.Start(ctx)
		}
	case ActionRetry:
		err = h.wizard.RetryFromFailed(ctx)
	case ActionSkip:
		err = h.wizard.Skip(ctx)
	case ActionRestartFrom:
		var req RestartFromRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: fmt.Sprintf("invalid JSON: %v", decodeErr),
			})
			return
		}
		err = h.wizard.RestartFromStep(ctx, req.Index)
	case ActionStopRestart:
		err = h.wizard.StopAndRestartCurrentStep(ctx)
	case ActionStop:
		h.wizard.Stop()
	default:
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: fmt.Sprintf("unknown action %q", h.action),
		})
		return
	}

	if err != nil {
		writeJSON(w, controlErrorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// controlErrorStatus maps wizard control errors onto HTTP status codes.
func controlErrorStatus(err error) int {
	switch {
	case errors.Is(err, wizard.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrNoFailedStep), errors.Is(err, wizard.ErrUnknownStep):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
