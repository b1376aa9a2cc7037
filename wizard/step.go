package wizard

// StepDefinition describes one unit of orchestrated work. Definitions are
// immutable: loaded once at startup and never mutated.
type StepDefinition struct {
	// ID uniquely identifies the step across the whole plan.
	ID string

	// PhaseID names the phase this step belongs to.
	PhaseID string

	// Title is the short user-facing name shown in the wizard UI.
	Title string

	// Description explains what the step does.
	Description string

	// Endpoint identifies the remote collaborator invoked by the default
	// executor path. Steps with bespoke multi-call behavior register a
	// StepHandler instead and may leave this empty.
	Endpoint string

	// Critical marks a step whose failure halts the entire run.
	// Non-critical failures degrade to warnings.
	Critical bool

	// AutoCompletedBy optionally names another step whose success also
	// satisfies this one, so it is skipped instead of executed.
	AutoCompletedBy string
}
