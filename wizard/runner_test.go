package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoforge/onboard/backend"
	"github.com/seoforge/onboard/logging"
)

// fakeSink records state mutations for assertions. Safe for concurrent use
// since parallel runners write from multiple goroutines.
type fakeSink struct {
	mu        sync.Mutex
	statuses  map[string]StepStatus
	indexes   []int
	progress  []int
	stats     Stats
	failed    *FailedStep
	warnings  int
	statusLog []string
}

func newFakeSink() *fakeSink {
	return &fakeSink{statuses: make(map[string]StepStatus), stats: make(Stats)}
}

func (s *fakeSink) setStatus(stepID string, st StepStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[stepID] = st
	s.statusLog = append(s.statusLog, stepID+":"+st.String())
}

func (s *fakeSink) setCurrentIndex(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes = append(s.indexes, index)
}

func (s *fakeSink) setProgress(pct int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, pct)
}

func (s *fakeSink) mergeStats(stats Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Merge(stats)
}

func (s *fakeSink) recordFailure(f FailedStep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = &f
}

func (s *fakeSink) addWarning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings++
}

func (s *fakeSink) stepStatus(stepID string) StepStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[stepID]
}

func (s *fakeSink) status(stepID string) StepStatus {
	return s.stepStatus(stepID)
}

// runnerFixture wires a plan, a scripted collaborator, and a fake sink
// into both runner types.
type runnerFixture struct {
	plan   *Plan
	sink   *fakeSink
	collab *fakeCollaborator
	seq    *sequentialRunner
	par    *parallelRunner
}

func newRunnerFixture(t *testing.T, plan *Plan, collab *fakeCollaborator) *runnerFixture {
	t.Helper()
	sink := newFakeSink()
	stream := logging.NewStream(100)
	exec := newTestExecutor(collab)
	return &runnerFixture{
		plan:   plan,
		sink:   sink,
		collab: collab,
		seq:    &sequentialRunner{plan: plan, exec: exec, sink: sink, logger: discardLogger(), stream: stream},
		par:    &parallelRunner{plan: plan, exec: exec, sink: sink, logger: discardLogger(), stream: stream},
	}
}

func TestSequentialRunHappyPath(t *testing.T) {
	plan := twoPhasePlan(t)
	collab := &fakeCollaborator{
		results: map[string]*backend.CallResult{
			"a/run": {Data: map[string]any{"sitesFound": float64(1)}},
			"b/run": {Data: map[string]any{"sitesFound": float64(2)}},
		},
	}
	fx := newRunnerFixture(t, plan, collab)

	ph, _ := plan.PhaseByID("first")
	halted, err := fx.seq.run(context.Background(), ph, 0, Token{})
	require.NoError(t, err)
	assert.False(t, halted)

	assert.Equal(t, StatusCompleted, fx.sink.status("a"))
	assert.Equal(t, StatusCompleted, fx.sink.status("b"))
	assert.Equal(t, Stats{"sitesFound": 3}, fx.sink.stats)
	assert.Equal(t, []string{"a/run", "b/run"}, collab.calls)
	assert.Equal(t, []int{20, 40}, fx.sink.progress)
}

func TestSequentialCriticalFailureHalts(t *testing.T) {
	plan := twoPhasePlan(t) // step "a" is critical
	collab := &fakeCollaborator{
		callErr: map[string]error{"a/run": errors.New("site unreachable")},
	}
	fx := newRunnerFixture(t, plan, collab)

	ph, _ := plan.PhaseByID("first")
	halted, err := fx.seq.run(context.Background(), ph, 0, Token{})
	require.NoError(t, err)
	assert.True(t, halted)

	assert.Equal(t, StatusError, fx.sink.status("a"))
	assert.Equal(t, StatusPending, fx.sink.status("b"), "later steps never start after a halt")
	require.NotNil(t, fx.sink.failed)
	assert.Equal(t, "a", fx.sink.failed.StepID)
	assert.Equal(t, 0, fx.sink.failed.Index)
	assert.NotContains(t, collab.calls, "b/run")
}

func TestSequentialNonCriticalFailureContinues(t *testing.T) {
	plan := twoPhasePlan(t) // step "b" is non-critical
	collab := &fakeCollaborator{
		callErr: map[string]error{"b/run": errors.New("quota exceeded")},
	}
	fx := newRunnerFixture(t, plan, collab)

	ph, _ := plan.PhaseByID("first")
	halted, err := fx.seq.run(context.Background(), ph, 0, Token{})
	require.NoError(t, err)
	assert.False(t, halted)

	assert.Equal(t, StatusCompleted, fx.sink.status("a"))
	assert.Equal(t, StatusError, fx.sink.status("b"))
	assert.Nil(t, fx.sink.failed)
	assert.Equal(t, 1, fx.sink.warnings)

	// Progress still reaches the phase end past the failed step.
	assert.Equal(t, 40, fx.sink.progress[len(fx.sink.progress)-1])
}

func TestSequentialSkipsCompletedSteps(t *testing.T) {
	plan := twoPhasePlan(t)
	collab := &fakeCollaborator{}
	fx := newRunnerFixture(t, plan, collab)
	fx.sink.statuses["a"] = StatusCompleted

	ph, _ := plan.PhaseByID("first")
	halted, err := fx.seq.run(context.Background(), ph, 0, Token{})
	require.NoError(t, err)
	assert.False(t, halted)
	assert.Equal(t, []string{"b/run"}, collab.calls)

	// The current index advances over the skipped step too, so status
	// reporting never points at an already completed step mid-phase.
	assert.Equal(t, []int{0, 1}, fx.sink.indexes)
}

func TestSequentialAbortResetsStep(t *testing.T) {
	var c Canceller
	tok := c.Snapshot()
	c.Abort()

	plan := twoPhasePlan(t)
	fx := newRunnerFixture(t, plan, &fakeCollaborator{})

	ph, _ := plan.PhaseByID("first")
	_, err := fx.seq.run(context.Background(), ph, 0, tok)
	assert.ErrorIs(t, err, ErrAborted)

	// The interrupted step returns to pending so a resume re-runs it.
	assert.Equal(t, StatusPending, fx.sink.status("a"))
	assert.Nil(t, fx.sink.failed)
}

func TestSequentialAutoCompletes(t *testing.T) {
	phases := []Phase{
		{ID: "p1", StepIDs: []string{"crawl", "inventory"}, ProgressStart: 0, ProgressEnd: 100},
	}
	defs := []StepDefinition{
		{ID: "crawl", PhaseID: "p1", Title: "Crawl", Endpoint: "crawl/run"},
		{ID: "inventory", PhaseID: "p1", Title: "Inventory", Endpoint: "inventory/run", AutoCompletedBy: "crawl"},
	}
	plan, err := NewPlan(phases, defs)
	require.NoError(t, err)

	collab := &fakeCollaborator{}
	fx := newRunnerFixture(t, plan, collab)

	ph, _ := plan.PhaseByID("p1")
	halted, err := fx.seq.run(context.Background(), ph, 0, Token{})
	require.NoError(t, err)
	assert.False(t, halted)

	assert.Equal(t, StatusCompleted, fx.sink.status("inventory"))
	assert.NotContains(t, collab.calls, "inventory/run", "auto-completed step never executes")
	assert.Equal(t, 100, fx.sink.progress[len(fx.sink.progress)-1])
}

func TestParallelAllSettle(t *testing.T) {
	plan := twoPhasePlan(t)
	collab := &fakeCollaborator{
		callErr: map[string]error{
			"c/run": errors.New("token expired"),
			"e/run": errors.New("permission denied"),
		},
		results: map[string]*backend.CallResult{
			"d/run": {Data: map[string]any{"connected": float64(1)}},
		},
	}
	fx := newRunnerFixture(t, plan, collab)

	ph, _ := plan.PhaseByID("second")
	err := fx.par.run(context.Background(), ph, Token{})
	require.NoError(t, err, "per-step failures are never phase errors")

	assert.Equal(t, StatusError, fx.sink.status("c"))
	assert.Equal(t, StatusCompleted, fx.sink.status("d"))
	assert.Equal(t, StatusError, fx.sink.status("e"))
	assert.Equal(t, 2, fx.sink.warnings)
	assert.Nil(t, fx.sink.failed)
	assert.Len(t, collab.calls, 3, "every sibling ran despite failures")

	// All three settled, so progress reaches the phase end even with
	// failures in the batch.
	assert.Equal(t, 100, fx.sink.progress[len(fx.sink.progress)-1])
}

func TestParallelSkipsCompletedSteps(t *testing.T) {
	plan := twoPhasePlan(t)
	collab := &fakeCollaborator{}
	fx := newRunnerFixture(t, plan, collab)
	fx.sink.statuses["c"] = StatusCompleted
	fx.sink.statuses["d"] = StatusCompleted

	ph, _ := plan.PhaseByID("second")
	require.NoError(t, fx.par.run(context.Background(), ph, Token{}))
	assert.Equal(t, []string{"e/run"}, collab.calls)
}

func TestParallelNothingPending(t *testing.T) {
	plan := twoPhasePlan(t)
	collab := &fakeCollaborator{}
	fx := newRunnerFixture(t, plan, collab)
	for _, id := range []string{"c", "d", "e"} {
		fx.sink.statuses[id] = StatusCompleted
	}

	ph, _ := plan.PhaseByID("second")
	require.NoError(t, fx.par.run(context.Background(), ph, Token{}))
	assert.Empty(t, collab.calls)
	assert.Equal(t, []int{100}, fx.sink.progress)
}

func TestParallelAbort(t *testing.T) {
	var c Canceller
	tok := c.Snapshot()
	c.Abort()

	plan := twoPhasePlan(t)
	fx := newRunnerFixture(t, plan, &fakeCollaborator{})

	ph, _ := plan.PhaseByID("second")
	err := fx.par.run(context.Background(), ph, tok)
	assert.ErrorIs(t, err, ErrAborted)

	// Aborted steps return to pending for a later resume.
	for _, id := range []string{"c", "d", "e"} {
		assert.Equal(t, StatusPending, fx.sink.status(id), id)
	}
}
