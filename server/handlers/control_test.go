package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seoforge/onboard/wizard"
)

// fakeController records which operations were invoked and returns a
// scripted error.
type fakeController struct {
	err     error
	calls   []string
	restart int
}

func (f *fakeController) Start(context.Context) error { f.calls = append(f.calls, "start"); return f.err }
func (f *fakeController) StartFresh() error           { f.calls = append(f.calls, "fresh"); return f.err }
func (f *fakeController) RetryFromFailed(context.Context) error {
	f.calls = append(f.calls, "retry")
	return f.err
}
func (f *fakeController) Skip(context.Context) error { f.calls = append(f.calls, "skip"); return f.err }
func (f *fakeController) RestartFromStep(_ context.Context, index int) error {
	f.calls = append(f.calls, "restart")
	f.restart = index
	return f.err
}
func (f *fakeController) StopAndRestartCurrentStep(context.Context) error {
	f.calls = append(f.calls, "stop-restart")
	return f.err
}
func (f *fakeController) Stop() { f.calls = append(f.calls, "stop") }

func postControl(t *testing.T, ctrl *fakeController, action ControlAction, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewControlHandler(ctrl, action)
	req := httptest.NewRequest(http.MethodPost, "/api/"+string(action), strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestControlActions(t *testing.T) {
	tests := []struct {
		action ControlAction
		body   string
		calls  []string
	}{
		{action: ActionStart, calls: []string{"start"}},
		{action: ActionStartFresh, calls: []string{"fresh", "start"}},
		{action: ActionRetry, calls: []string{"retry"}},
		{action: ActionSkip, calls: []string{"skip"}},
		{action: ActionRestartFrom, body: `{"index": 7}`, calls: []string{"restart"}},
		{action: ActionStopRestart, calls: []string{"stop-restart"}},
		{action: ActionStop, calls: []string{"stop"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			ctrl := &fakeController{}
			w := postControl(t, ctrl, tt.action, tt.body)

			assert.Equal(t, http.StatusAccepted, w.Code)
			assert.Equal(t, tt.calls, ctrl.calls)
		})
	}
}

func TestControlRestartFromIndex(t *testing.T) {
	ctrl := &fakeController{}
	w := postControl(t, ctrl, ActionRestartFrom, `{"index": 12}`)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 12, ctrl.restart)
}

func TestControlRestartFromBadJSON(t *testing.T) {
	ctrl := &fakeController{}
	w := postControl(t, ctrl, ActionRestartFrom, `{`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ctrl.calls)
}

func TestControlErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "run in progress", err: wizard.ErrRunInProgress, want: http.StatusConflict},
		{name: "no failed step", err: wizard.ErrNoFailedStep, want: http.StatusBadRequest},
		{name: "unknown step", err: wizard.ErrUnknownStep, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{err: tt.err}
			w := postControl(t, ctrl, ActionStart, "")

			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}
