package handlers

import "net/http"

// PlanStep is one step in the plan payload.
type PlanStep struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Critical        bool   `json:"critical"`
	AutoCompletedBy string `json:"auto_completed_by,omitempty"`
	Index           int    `json:"index"`
}

// PlanPhase is one phase in the plan payload.
type PlanPhase struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Mode          string     `json:"mode"`
	ProgressStart int        `json:"progress_start"`
	ProgressEnd   int        `json:"progress_end"`
	Steps         []PlanStep `json:"steps"`
}

// PlanResponse is the payload for GET /api/plan.
type PlanResponse struct {
	Phases     []PlanPhase `json:"phases"`
	TotalSteps int         `json:"total_steps"`
}

// PlanHandler serves the static phase/step catalog so the UI can render
// the wizard outline before any run starts.
type PlanHandler struct {
	plan PlanProvider
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(plan PlanProvider) *PlanHandler {
	return &PlanHandler{plan: plan}
}

// ServeHTTP implements http.Handler.
func (h *PlanHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	plan := h.plan.Plan()

	resp := PlanResponse{TotalSteps: plan.TotalSteps()}
	for _, ph := range plan.Phases() {
		phase := PlanPhase{
			ID:            ph.ID,
			Title:         ph.Title,
			Mode:          ph.Mode.String(),
			ProgressStart: ph.ProgressStart,
			ProgressEnd:   ph.ProgressEnd,
		}
		for _, stepID := range ph.StepIDs {
			step, ok := plan.Step(stepID)
			if !ok {
				continue
			}
			idx, _ := plan.IndexOf(stepID)
			phase.Steps = append(phase.Steps, PlanStep{
				ID:              step.ID,
				Title:           step.Title,
				Description:     step.Description,
				Critical:        step.Critical,
				AutoCompletedBy: step.AutoCompletedBy,
				Index:           idx,
			})
		}
		resp.Phases = append(resp.Phases, phase)
	}

	writeJSON(w, http.StatusOK, resp)
}
