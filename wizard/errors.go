package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrPlanIntegrity is returned by NewPlan when the phase plan is
	// malformed. It is fatal at startup; no partial run may begin.
	ErrPlanIntegrity = errors.New("plan integrity violated")

	// ErrRunInProgress is returned when attempting to start a run while
	// one is already active. Only one run loop may exist per wizard.
	ErrRunInProgress = errors.New("setup run already in progress")

	// ErrAborted indicates cooperative cancellation by the user. It is a
	// clean early return, never surfaced as a user-visible failure.
	ErrAborted = errors.New("run aborted")

	// ErrTimeout indicates a background job exceeded its polling budget.
	// Distinct from a job failure: the job may still be running server-side.
	ErrTimeout = errors.New("job polling budget exhausted")

	// ErrNoFailedStep is returned by recovery operations when no failure
	// has been recorded.
	ErrNoFailedStep = errors.New("no failed step recorded")

	// ErrUnknownStep is returned when a step id or index is outside the plan.
	ErrUnknownStep = errors.New("unknown step")
)

// RemoteError indicates the collaborator rejected a call or reported a job
// as failed. The message is what the remote side said.
type RemoteError struct {
	Endpoint string
	Message  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote call %s failed: %s", e.Endpoint, e.Message)
}
