package wizard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/seoforge/onboard/logging"
)

// Listener observes every run-state change. Implementations must not
// block: they are called synchronously from the run loop.
type Listener interface {
	StateChanged(view StateView)
}

// StatePersister snapshots run state so a crashed or reloaded client can
// resume. StateChanged saves are best-effort: a persistence failure must
// never affect run semantics.
type StatePersister interface {
	Listener
	Load() (*StateView, bool)
	Clear()
}

// Wizard owns one onboarding run for one (tenant, site) identity. All
// mutable state hangs off this instance; it is created when the wizard
// mounts and discarded on unmount or completion.
type Wizard struct {
	plan      *Plan
	exec      *Executor
	logger    *slog.Logger
	stream    *logging.Stream
	persister StatePersister
	listeners []Listener
	cancel    Canceller

	mu           sync.Mutex
	running      bool
	doneCh       chan struct{}
	statuses     map[string]StepStatus
	currentIndex int
	progress     int
	stats        Stats
	failed       *FailedStep
	hasStarted   bool
	warnings     int
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) {
		w.logger = logger.With("component", "wizard")
	}
}

// WithStream sets the user-visible log stream.
func WithStream(stream *logging.Stream) Option {
	return func(w *Wizard) {
		w.stream = stream
	}
}

// WithPersister attaches the persistence/resume manager.
func WithPersister(p StatePersister) Option {
	return func(w *Wizard) {
		w.persister = p
	}
}

// WithListener attaches an additional state-change listener.
func WithListener(l Listener) Option {
	return func(w *Wizard) {
		w.listeners = append(w.listeners, l)
	}
}

// New creates a Wizard over a validated plan and an executor. Every step
// starts Pending.
func New(plan *Plan, exec *Executor, opts ...Option) *Wizard {
	w := &Wizard{
		plan:     plan,
		exec:     exec,
		logger:   slog.Default().With("component", "wizard"),
		stream:   logging.NewStream(logging.DefaultStreamCapacity),
		statuses: make(map[string]StepStatus, plan.TotalSteps()),
		stats:    make(Stats),
	}
	for _, stepID := range plan.StepIDs() {
		w.statuses[stepID] = StatusPending
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Plan returns the compiled phase plan.
func (w *Wizard) Plan() *Plan {
	return w.plan
}

// Stream returns the user-visible log stream.
func (w *Wizard) Stream() *logging.Stream {
	return w.stream
}

// Running reports whether a run loop is active.
func (w *Wizard) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Status is a point-in-time report for the UI.
type Status struct {
	Running          bool      `json:"running"`
	CurrentStepID    string    `json:"current_step_id,omitempty"`
	CurrentStepTitle string    `json:"current_step_title,omitempty"`
	State            StateView `json:"state"`
}

// Status returns the current run status.
func (w *Wizard) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := Status{
		Running: w.running,
		State:   w.viewLocked(),
	}
	if step, ok := w.plan.StepAt(w.currentIndex); ok {
		st.CurrentStepID = step.ID
		st.CurrentStepTitle = step.Title
	}
	return st
}

// View returns a copy of the current run state.
func (w *Wizard) View() StateView {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLocked()
}

// Restore pre-populates run state from a persisted snapshot, if one with
// progressed state exists. It never auto-runs: the caller decides between
// resuming and starting fresh. Returns true when state was restored.
func (w *Wizard) Restore() bool {
	if w.persister == nil {
		return false
	}
	view, ok := w.persister.Load()
	if !ok || !view.Started() {
		return false
	}

	w.mu.Lock()
	for id, st := range view.Statuses {
		if _, known := w.statuses[id]; !known {
			continue // step dropped from the plan since the snapshot
		}
		if st == StatusRunning {
			st = StatusPending // interrupted mid-step; re-run it
		}
		w.statuses[id] = st
	}
	w.currentIndex = view.CurrentStepIndex
	w.progress = view.GlobalProgress
	if view.Stats != nil {
		w.stats = view.Stats.Clone()
	}
	w.failed = view.FailedStep
	w.hasStarted = view.HasStarted
	w.warnings = view.Warnings
	w.mu.Unlock()

	w.logger.Info("run state restored from snapshot",
		"progress", view.GlobalProgress, "current_index", view.CurrentStepIndex)
	return true
}

// Start begins (or resumes) the run loop from the current position in the
// background. Returns ErrRunInProgress if a run is already active.
func (w *Wizard) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrRunInProgress
	}
	w.running = true
	w.hasStarted = true
	w.doneCh = make(chan struct{})
	w.mu.Unlock()
	w.notify()

	w.logger.Info("starting setup run")
	go w.runLoop(ctx)
	return nil
}

// Wait blocks until the active run loop (if any) finishes.
func (w *Wizard) Wait() {
	w.mu.Lock()
	ch := w.doneCh
	running := w.running
	w.mu.Unlock()
	if !running || ch == nil {
		return
	}
	<-ch
}

// Stop requests cooperative cancellation of the active run. Outstanding
// collaborator calls are not killed; their results are discarded.
func (w *Wizard) Stop() {
	w.cancel.Abort()
	w.logger.Info("stop requested")
}

// StartFresh clears the snapshot and resets all run state. It does not
// auto-run; call Start afterwards.
func (w *Wizard) StartFresh() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrRunInProgress
	}
	for _, stepID := range w.plan.StepIDs() {
		w.statuses[stepID] = StatusPending
	}
	w.currentIndex = 0
	w.progress = 0
	w.stats = make(Stats)
	w.failed = nil
	w.hasStarted = false
	w.warnings = 0
	w.mu.Unlock()

	w.stream.Clear()
	if w.persister != nil {
		w.persister.Clear()
	}
	w.notify()
	w.logger.Info("run state reset")
	return nil
}

// RetryFromFailed clears only the failed step's status and resumes the
// run from its index, preserving all prior completions.
func (w *Wizard) RetryFromFailed(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrRunInProgress
	}
	if w.failed == nil {
		w.mu.Unlock()
		return ErrNoFailedStep
	}
	failed := *w.failed
	w.statuses[failed.StepID] = StatusPending
	w.currentIndex = failed.Index
	w.failed = nil
	w.mu.Unlock()
	w.notify()

	w.logger.Info("retrying from failed step", "step", failed.StepID, "index", failed.Index)
	return w.Start(ctx)
}

// Skip marks the failed step as completed without running it and resumes
// the run past it.
func (w *Wizard) Skip(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrRunInProgress
	}
	if w.failed == nil {
		w.mu.Unlock()
		return ErrNoFailedStep
	}
	failed := *w.failed
	w.statuses[failed.StepID] = StatusCompleted
	w.currentIndex = failed.Index
	w.failed = nil
	w.mu.Unlock()
	w.notify()

	if step, ok := w.plan.Step(failed.StepID); ok {
		w.stream.Appendf(logging.SeverityWarn, "%s skipped", step.Title)
	}
	w.logger.Info("failed step skipped", "step", failed.StepID)
	return w.Start(ctx)
}

// RestartFromStep resets the step at index and every subsequent step to
// Pending, then resumes from there. Later steps may depend on the
// restarted step's output, so this deliberately invalidates all of them,
// not just the clicked one.
func (w *Wizard) RestartFromStep(ctx context.Context, index int) error {
	stepIDs := w.plan.StepIDs()
	if index < 0 || index >= len(stepIDs) {
		return ErrUnknownStep
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrRunInProgress
	}
	for i := index; i < len(stepIDs); i++ {
		w.statuses[stepIDs[i]] = StatusPending
	}
	w.currentIndex = index
	w.failed = nil

	// Progress rewinds to the restart position; monotonicity only holds
	// within a single run attempt.
	step, _ := w.plan.StepAt(index)
	if ph, ok := w.plan.PhaseOf(step.ID); ok {
		local := index - w.plan.PhaseStartIndex(ph.ID)
		w.progress = ProgressAt(ph, local, len(ph.StepIDs))
	}
	w.mu.Unlock()
	w.notify()

	w.logger.Info("restarting from step", "step", step.ID, "index", index)
	return w.Start(ctx)
}

// RestartPhase restarts from the first step of the named phase. The
// refresh scheduler uses this to re-run maintenance phases.
func (w *Wizard) RestartPhase(ctx context.Context, phaseID string) error {
	if _, ok := w.plan.PhaseByID(phaseID); !ok {
		return ErrUnknownStep
	}
	return w.RestartFromStep(ctx, w.plan.PhaseStartIndex(phaseID))
}

// StopAndRestartCurrentStep cancels the active run, resets the step that
// was executing, and starts again from it.
func (w *Wizard) StopAndRestartCurrentStep(ctx context.Context) error {
	if w.Running() {
		w.cancel.Abort()
		w.Wait()
	}

	w.mu.Lock()
	index := w.currentIndex
	if step, ok := w.plan.StepAt(index); ok {
		w.statuses[step.ID] = StatusPending
	}
	w.failed = nil
	w.mu.Unlock()
	w.notify()

	w.logger.Info("restarting current step", "index", index)
	return w.Start(ctx)
}

// runLoop drives phases in order until completion, halt, or abort.
func (w *Wizard) runLoop(ctx context.Context) {
	defer w.finish()

	token := w.cancel.Snapshot()
	seq := &sequentialRunner{plan: w.plan, exec: w.exec, sink: w, logger: w.logger, stream: w.stream}
	par := &parallelRunner{plan: w.plan, exec: w.exec, sink: w, logger: w.logger, stream: w.stream}

	for _, ph := range w.plan.Phases() {
		start := w.plan.PhaseStartIndex(ph.ID)
		end := start + len(ph.StepIDs)

		w.mu.Lock()
		cur := w.currentIndex
		w.mu.Unlock()

		if cur >= end {
			// Phase already behind the resume position.
			w.setProgress(ph.ProgressEnd)
			continue
		}

		var (
			halted bool
			err    error
		)
		switch ph.Mode {
		case Parallel:
			w.setCurrentIndex(start)
			err = par.run(ctx, ph, token)
		default:
			from := 0
			if cur > start {
				from = cur - start
			}
			halted, err = seq.run(ctx, ph, from, token)
		}

		if err != nil {
			// Aborted is a clean early return, not a failure.
			w.stream.Append(logging.SeverityWarn, "setup paused")
			w.logger.Info("run aborted", "phase", ph.ID)
			return
		}
		if halted {
			return
		}
	}

	w.complete()
}

// complete finalizes a successful run: progress pinned to 100, snapshot
// removed.
func (w *Wizard) complete() {
	w.setProgress(100)

	w.mu.Lock()
	warnings := w.warnings
	w.mu.Unlock()

	if warnings > 0 {
		w.stream.Appendf(logging.SeverityWarn, "setup complete with %d warnings", warnings)
	} else {
		w.stream.Append(logging.SeverityInfo, "setup complete")
	}
	w.logger.Info("setup run completed", "warnings", warnings)

	if w.persister != nil {
		w.persister.Clear()
	}
}

func (w *Wizard) finish() {
	w.mu.Lock()
	w.running = false
	ch := w.doneCh
	w.mu.Unlock()
	w.notify()
	if ch != nil {
		close(ch)
	}
}

// notify snapshots the state and fans it out to the persister and
// listeners, outside the state mutex.
func (w *Wizard) notify() {
	w.mu.Lock()
	view := w.viewLocked()
	w.mu.Unlock()

	if w.persister != nil {
		w.persister.StateChanged(view)
	}
	for _, l := range w.listeners {
		l.StateChanged(view)
	}
}

// viewLocked copies the run state. Caller must hold mu.
func (w *Wizard) viewLocked() StateView {
	statuses := make(map[string]StepStatus, len(w.statuses))
	for id, st := range w.statuses {
		statuses[id] = st
	}
	var failed *FailedStep
	if w.failed != nil {
		f := *w.failed
		failed = &f
	}
	return StateView{
		Statuses:         statuses,
		CurrentStepIndex: w.currentIndex,
		GlobalProgress:   w.progress,
		Stats:            w.stats.Clone(),
		FailedStep:       failed,
		HasStarted:       w.hasStarted,
		Warnings:         w.warnings,
	}
}

// stateSink implementation. Each mutation notifies listeners, which is
// what drives snapshot persistence after every state change.

func (w *Wizard) setStatus(stepID string, st StepStatus) {
	w.mu.Lock()
	w.statuses[stepID] = st
	w.mu.Unlock()
	w.notify()
}

func (w *Wizard) setCurrentIndex(index int) {
	w.mu.Lock()
	w.currentIndex = index
	w.mu.Unlock()
	w.notify()
}

func (w *Wizard) setProgress(pct int) {
	w.mu.Lock()
	// Monotonic non-decreasing within a run attempt.
	if pct <= w.progress {
		w.mu.Unlock()
		return
	}
	w.progress = pct
	w.mu.Unlock()
	w.notify()
}

func (w *Wizard) mergeStats(s Stats) {
	if len(s) == 0 {
		return
	}
	w.mu.Lock()
	w.stats.Merge(s)
	w.mu.Unlock()
	w.notify()
}

func (w *Wizard) recordFailure(f FailedStep) {
	w.mu.Lock()
	w.failed = &f
	w.mu.Unlock()
	w.notify()
}

func (w *Wizard) addWarning() {
	w.mu.Lock()
	w.warnings++
	w.mu.Unlock()
	w.notify()
}

func (w *Wizard) stepStatus(stepID string) StepStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.statuses[stepID]
}
