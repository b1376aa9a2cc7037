package wizard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/seoforge/onboard/logging"
)

// maxReportedFailures caps the individual failure lines a parallel phase
// emits after settling; the rest collapse into a "+K more" note so a bad
// batch cannot flood the stream.
const maxReportedFailures = 3

// stateSink is how phase runners mutate the shared run state. The Wizard
// is the only production implementation; runner tests use a fake. Every
// mutation notifies listeners, which is what drives persistence.
type stateSink interface {
	setStatus(stepID string, st StepStatus)
	setCurrentIndex(index int)
	setProgress(pct int)
	mergeStats(s Stats)
	recordFailure(f FailedStep)
	addWarning()
	stepStatus(stepID string) StepStatus
}

// sequentialRunner applies one sequential phase: strict declared order,
// critical failures halt the entire run, non-critical failures degrade to
// warnings and the run continues.
type sequentialRunner struct {
	plan   *Plan
	exec   *Executor
	sink   stateSink
	logger *slog.Logger
	stream *logging.Stream
}

// run executes ph's steps beginning at local offset from (0-based within
// the phase). It returns halted=true when a critical step failed and the
// failure was recorded, or ErrAborted on cooperative cancellation.
func (r *sequentialRunner) run(ctx context.Context, ph Phase, from int, token Token) (halted bool, err error) {
	total := len(ph.StepIDs)

	for local := from; local < total; local++ {
		stepID := ph.StepIDs[local]
		step, ok := r.plan.Step(stepID)
		if !ok {
			// Unreachable on a validated plan.
			return false, ErrUnknownStep
		}
		global, _ := r.plan.IndexOf(stepID)

		r.sink.setCurrentIndex(global)

		if r.sink.stepStatus(stepID) == StatusCompleted {
			// Already satisfied: resumed run or auto-completed earlier.
			r.sink.setProgress(ProgressAt(ph, local+1, total))
			continue
		}

		r.sink.setStatus(stepID, StatusRunning)
		r.stream.Appendf(logging.SeverityInfo, "%s…", step.Title)

		stats, execErr := r.exec.Execute(ctx, step, token, false)
		if errors.Is(execErr, ErrAborted) {
			r.sink.setStatus(stepID, StatusPending)
			return false, ErrAborted
		}

		if execErr != nil {
			if step.Critical {
				r.sink.setStatus(stepID, StatusError)
				r.sink.recordFailure(FailedStep{StepID: stepID, Message: execErr.Error(), Index: global})
				r.stream.Appendf(logging.SeverityError, "%s failed: %v", step.Title, execErr)
				r.logger.Error("critical step failed, halting run",
					"step", stepID, "index", global, "error", execErr)
				return true, nil
			}

			r.sink.setStatus(stepID, StatusError)
			r.sink.addWarning()
			r.stream.Appendf(logging.SeverityWarn, "%s failed: %v (continuing)", step.Title, execErr)
			r.logger.Warn("non-critical step failed, continuing", "step", stepID, "error", execErr)
		} else {
			r.sink.mergeStats(stats)
			r.sink.setStatus(stepID, StatusCompleted)
			r.stream.Appendf(logging.SeverityInfo, "%s done", step.Title)
			r.autoComplete(stepID)
		}

		r.sink.setProgress(ProgressAt(ph, local+1, total))
	}

	return false, nil
}

// autoComplete marks steps satisfied by the given step's success.
func (r *sequentialRunner) autoComplete(triggerID string) {
	for _, id := range r.plan.AutoCompletedBy(triggerID) {
		if r.sink.stepStatus(id) != StatusPending {
			continue
		}
		r.sink.setStatus(id, StatusCompleted)
		if dep, ok := r.plan.Step(id); ok {
			r.stream.Appendf(logging.SeverityInfo, "%s already covered", dep.Title)
			r.logger.Debug("step auto-completed", "step", id, "by", triggerID)
		}
	}
}

// parallelRunner applies one parallel phase: every step launches
// concurrently and the phase is done only when all of them settle. A
// failing step never stops its siblings; failures are aggregated into a
// summary after the batch.
type parallelRunner struct {
	plan   *Plan
	exec   *Executor
	sink   stateSink
	logger *slog.Logger
	stream *logging.Stream
}

// settlement is one concurrent step's outcome.
type settlement struct {
	stepID string
	title  string
	stats  Stats
	err    error
}

// run executes all of ph's steps concurrently. Progress is recomputed on
// every settlement (not on a wall-clock ticker) and written as a single
// coalesced "N of M" stream line. Returns ErrAborted when cancellation
// interrupted the batch; per-step failures are recorded but never
// returned as errors.
func (r *parallelRunner) run(ctx context.Context, ph Phase, token Token) error {
	total := len(ph.StepIDs)

	var pending []StepDefinition
	for _, stepID := range ph.StepIDs {
		if r.sink.stepStatus(stepID) == StatusCompleted {
			continue
		}
		step, ok := r.plan.Step(stepID)
		if !ok {
			return ErrUnknownStep
		}
		pending = append(pending, step)
	}

	settled := total - len(pending)
	completed := settled
	if len(pending) == 0 {
		r.sink.setProgress(ProgressAt(ph, total, total))
		return nil
	}

	r.stream.Appendf(logging.SeverityInfo, "%s: running %d steps in parallel", ph.Title, len(pending))
	for _, step := range pending {
		r.sink.setStatus(step.ID, StatusRunning)
	}

	results := make(chan settlement, len(pending))
	var wg sync.WaitGroup
	for _, step := range pending {
		wg.Add(1)
		go func(step StepDefinition) {
			defer wg.Done()
			stats, err := r.exec.Execute(ctx, step, token, true)
			results <- settlement{stepID: step.ID, title: step.Title, stats: stats, err: err}
		}(step)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// Never race the batch: the phase is not done until every step
	// settles or is aborted.
	var failures []settlement
	for res := range results {
		switch {
		case errors.Is(res.err, ErrAborted):
			// Back to pending so a resumed run re-executes it.
			r.sink.setStatus(res.stepID, StatusPending)
		case res.err != nil:
			r.sink.setStatus(res.stepID, StatusError)
			r.sink.addWarning()
			failures = append(failures, res)
			settled++
		default:
			r.sink.mergeStats(res.stats)
			r.sink.setStatus(res.stepID, StatusCompleted)
			completed++
			settled++
		}

		if !token.Aborted() {
			r.sink.setProgress(ProgressAt(ph, settled, total))
			r.stream.Setf("phase:"+ph.ID, logging.SeverityInfo,
				"%s: %d of %d complete", ph.Title, completed, total)
		}
	}

	if token.Aborted() {
		return ErrAborted
	}

	r.summarize(ph, completed, total, failures)
	return nil
}

// summarize emits one summary line plus up to the first few individual
// failures.
func (r *parallelRunner) summarize(ph Phase, completed, total int, failures []settlement) {
	sev := logging.SeverityInfo
	if len(failures) > 0 {
		sev = logging.SeverityWarn
	}
	r.stream.Setf("phase:"+ph.ID, sev, "%s: %d of %d steps completed", ph.Title, completed, total)

	for i, f := range failures {
		if i == maxReportedFailures {
			r.stream.Appendf(logging.SeverityWarn, "+%d more failures", len(failures)-maxReportedFailures)
			break
		}
		r.stream.Appendf(logging.SeverityWarn, "%s failed: %v", f.title, f.err)
	}

	r.logger.Info("parallel phase settled",
		"phase", ph.ID, "completed", completed, "failed", len(failures), "total", total)
}
