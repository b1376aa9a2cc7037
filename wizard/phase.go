package wizard

import "fmt"

// Mode is a phase's execution mode.
type Mode int

const (
	// Sequential phases run steps in declared order; a critical failure
	// halts the entire run.
	Sequential Mode = iota

	// Parallel phases launch all steps concurrently and wait for every
	// one to settle; failures are aggregated, never fatal.
	Parallel
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// Phase is a group of steps sharing an execution mode and a contiguous
// slice [ProgressStart, ProgressEnd) of overall progress.
type Phase struct {
	ID            string
	Title         string
	Mode          Mode
	StepIDs       []string
	ProgressStart int
	ProgressEnd   int
}

// Plan is the compiled, validated phase plan: the ordered phase list plus
// the step catalog. Construction fails fast on any integrity violation.
type Plan struct {
	phases        []Phase
	steps         map[string]StepDefinition
	order         []string       // global step order, phases concatenated
	indexByID     map[string]int // step id -> global index
	phaseByID     map[string]Phase
	phaseStart    map[string]int      // phase id -> global index of its first step
	autoCompletes map[string][]string // trigger step id -> satisfied step ids
}

// NewPlan compiles phases and step definitions into a Plan, validating:
//   - phases are non-empty and progress ranges tile [0, 100] contiguously
//   - step ids partition the definition set with no duplicates
//   - each definition's PhaseID matches the phase that lists it
//   - critical steps only appear in sequential phases
//   - AutoCompletedBy references name existing, distinct steps
//
// Any violation returns an error wrapping ErrPlanIntegrity.
func NewPlan(phases []Phase, defs []StepDefinition) (*Plan, error) {
	if len(phases) == 0 {
		return nil, fmt.Errorf("%w: no phases", ErrPlanIntegrity)
	}

	p := &Plan{
		phases:        phases,
		steps:         make(map[string]StepDefinition, len(defs)),
		indexByID:     make(map[string]int, len(defs)),
		phaseByID:     make(map[string]Phase, len(phases)),
		phaseStart:    make(map[string]int, len(phases)),
		autoCompletes: make(map[string][]string),
	}

	for _, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("%w: step with empty id", ErrPlanIntegrity)
		}
		if _, dup := p.steps[def.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate step id %q", ErrPlanIntegrity, def.ID)
		}
		p.steps[def.ID] = def
	}

	expectedStart := 0
	for _, ph := range phases {
		if ph.ID == "" {
			return nil, fmt.Errorf("%w: phase with empty id", ErrPlanIntegrity)
		}
		if _, dup := p.phaseByID[ph.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate phase id %q", ErrPlanIntegrity, ph.ID)
		}
		if len(ph.StepIDs) == 0 {
			return nil, fmt.Errorf("%w: phase %q has no steps", ErrPlanIntegrity, ph.ID)
		}
		if ph.ProgressStart != expectedStart {
			return nil, fmt.Errorf("%w: phase %q starts at %d, want %d",
				ErrPlanIntegrity, ph.ID, ph.ProgressStart, expectedStart)
		}
		if ph.ProgressEnd <= ph.ProgressStart || ph.ProgressEnd > 100 {
			return nil, fmt.Errorf("%w: phase %q has invalid range [%d, %d)",
				ErrPlanIntegrity, ph.ID, ph.ProgressStart, ph.ProgressEnd)
		}
		expectedStart = ph.ProgressEnd

		p.phaseByID[ph.ID] = ph
		p.phaseStart[ph.ID] = len(p.order)

		for _, stepID := range ph.StepIDs {
			def, ok := p.steps[stepID]
			if !ok {
				return nil, fmt.Errorf("%w: phase %q lists undefined step %q",
					ErrPlanIntegrity, ph.ID, stepID)
			}
			if def.PhaseID != ph.ID {
				return nil, fmt.Errorf("%w: step %q declares phase %q but is listed in %q",
					ErrPlanIntegrity, stepID, def.PhaseID, ph.ID)
			}
			if _, seen := p.indexByID[stepID]; seen {
				return nil, fmt.Errorf("%w: step %q listed in more than one phase",
					ErrPlanIntegrity, stepID)
			}
			if ph.Mode == Parallel && def.Critical {
				return nil, fmt.Errorf("%w: critical step %q in parallel phase %q",
					ErrPlanIntegrity, stepID, ph.ID)
			}
			p.indexByID[stepID] = len(p.order)
			p.order = append(p.order, stepID)
		}
	}

	if expectedStart != 100 {
		return nil, fmt.Errorf("%w: last phase ends at %d, want 100", ErrPlanIntegrity, expectedStart)
	}
	if len(p.order) != len(p.steps) {
		return nil, fmt.Errorf("%w: %d steps defined but %d assigned to phases",
			ErrPlanIntegrity, len(p.steps), len(p.order))
	}

	for _, def := range defs {
		if def.AutoCompletedBy == "" {
			continue
		}
		if def.AutoCompletedBy == def.ID {
			return nil, fmt.Errorf("%w: step %q auto-completed by itself", ErrPlanIntegrity, def.ID)
		}
		if _, ok := p.steps[def.AutoCompletedBy]; !ok {
			return nil, fmt.Errorf("%w: step %q auto-completed by undefined step %q",
				ErrPlanIntegrity, def.ID, def.AutoCompletedBy)
		}
		p.autoCompletes[def.AutoCompletedBy] = append(p.autoCompletes[def.AutoCompletedBy], def.ID)
	}

	return p, nil
}

// Phases returns the ordered phase list.
func (p *Plan) Phases() []Phase {
	out := make([]Phase, len(p.phases))
	copy(out, p.phases)
	return out
}

// Step returns the definition for a step id.
func (p *Plan) Step(id string) (StepDefinition, bool) {
	def, ok := p.steps[id]
	return def, ok
}

// PhaseOf returns the phase a step belongs to.
func (p *Plan) PhaseOf(stepID string) (Phase, bool) {
	def, ok := p.steps[stepID]
	if !ok {
		return Phase{}, false
	}
	ph, ok := p.phaseByID[def.PhaseID]
	return ph, ok
}

// PhaseByID returns a phase by its id.
func (p *Plan) PhaseByID(id string) (Phase, bool) {
	ph, ok := p.phaseByID[id]
	return ph, ok
}

// IndexOf returns a step's global index in plan order.
func (p *Plan) IndexOf(stepID string) (int, bool) {
	idx, ok := p.indexByID[stepID]
	return idx, ok
}

// StepAt returns the step definition at a global index.
func (p *Plan) StepAt(index int) (StepDefinition, bool) {
	if index < 0 || index >= len(p.order) {
		return StepDefinition{}, false
	}
	return p.steps[p.order[index]], true
}

// StepIDs returns all step ids in global plan order.
func (p *Plan) StepIDs() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// TotalSteps returns the number of steps across all phases.
func (p *Plan) TotalSteps() int {
	return len(p.order)
}

// PhaseStartIndex returns the global index of a phase's first step.
func (p *Plan) PhaseStartIndex(phaseID string) int {
	return p.phaseStart[phaseID]
}

// AutoCompletedBy returns the ids of steps also satisfied when the given
// step completes successfully.
func (p *Plan) AutoCompletedBy(triggerID string) []string {
	return p.autoCompletes[triggerID]
}
