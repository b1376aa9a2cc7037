package wizard

import "fmt"

// StepStatus is the execution status of a single step within a run.
type StepStatus int

const (
	// StatusPending indicates the step has not started.
	StatusPending StepStatus = iota

	// StatusRunning indicates the step is currently executing.
	StatusRunning

	// StatusCompleted indicates the step finished successfully (or was
	// skipped / auto-completed).
	StatusCompleted

	// StatusError indicates the step failed.
	StatusError
)

// String returns the string representation of the status.
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s StepStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. Snapshots written by other
// versions may hold arbitrary tokens here; those must surface as errors,
// never panics, so a corrupt snapshot is ignored rather than fatal.
func (s *StepStatus) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("step status must be a JSON string, got %s", data)
	}
	parsed, err := ParseStepStatus(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStepStatus converts a string produced by String back into a status.
func ParseStepStatus(s string) (StepStatus, error) {
	switch s {
	case "pending":
		return StatusPending, nil
	case "running":
		return StatusRunning, nil
	case "completed":
		return StatusCompleted, nil
	case "error":
		return StatusError, nil
	default:
		return StatusPending, fmt.Errorf("unknown step status %q", s)
	}
}

// Stats holds named numeric counters accumulated across steps,
// e.g. pagesDiscovered or keywordsSynced.
type Stats map[string]int64

// Merge adds every counter from other into s.
func (s Stats) Merge(other Stats) {
	for k, v := range other {
		s[k] += v
	}
}

// Clone returns a copy of s.
func (s Stats) Clone() Stats {
	out := make(Stats, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// FailedStep records the step that halted a run.
type FailedStep struct {
	StepID  string `json:"step_id"`
	Message string `json:"message"`
	Index   int    `json:"index"`
}

// StateView is an immutable copy of the wizard's run state, handed to
// listeners on every change and serialized by the persistence manager.
type StateView struct {
	Statuses         map[string]StepStatus `json:"step_statuses"`
	CurrentStepIndex int                   `json:"current_step_index"`
	GlobalProgress   int                   `json:"global_progress"`
	Stats            Stats                 `json:"stats"`
	FailedStep       *FailedStep           `json:"failed_step,omitempty"`
	HasStarted       bool                  `json:"has_started"`
	Warnings         int                   `json:"warnings"`
}

// Started reports whether this view carries any progressed state worth
// offering a resume for.
func (v StateView) Started() bool {
	if v.HasStarted {
		return true
	}
	for _, st := range v.Statuses {
		if st != StatusPending {
			return true
		}
	}
	return false
}
