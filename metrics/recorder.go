package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/seoforge/onboard/wizard"
)

// Recorder translates wizard state changes into metrics. It is attached
// as a wizard listener; every StateChanged call diffs against the
// previous view so counters only move on real transitions.
type Recorder struct {
	progress       Gauge
	warnings       Gauge
	stepsByStatus  GaugeVec
	stepsCompleted Counter
	stepsFailed    Counter
	runsCompleted  Counter
	stats          GaugeVec

	mu   sync.Mutex
	prev map[string]wizard.StepStatus
	done bool
}

// NewRecorder registers the onboarding metrics with reg.
func NewRecorder(reg Registry) (*Recorder, error) {
	r := &Recorder{prev: make(map[string]wizard.StepStatus)}

	var err error
	if r.progress, err = reg.NewGauge(prometheus.GaugeOpts{
		Name: "setup_progress_percent",
		Help: "Overall onboarding progress, 0 to 100.",
	}); err != nil {
		return nil, fmt.Errorf("registering progress gauge: %w", err)
	}
	if r.warnings, err = reg.NewGauge(prometheus.GaugeOpts{
		Name: "setup_warnings",
		Help: "Non-critical step failures in the current run.",
	}); err != nil {
		return nil, fmt.Errorf("registering warnings gauge: %w", err)
	}
	if r.stepsByStatus, err = reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "setup_steps",
		Help: "Step count by current status.",
	}, []string{"status"}); err != nil {
		return nil, fmt.Errorf("registering steps gauge: %w", err)
	}
	if r.stepsCompleted, err = reg.NewCounter(prometheus.CounterOpts{
		Name: "setup_steps_completed_total",
		Help: "Steps that reached completed status.",
	}); err != nil {
		return nil, fmt.Errorf("registering completed counter: %w", err)
	}
	if r.stepsFailed, err = reg.NewCounter(prometheus.CounterOpts{
		Name: "setup_steps_failed_total",
		Help: "Steps that reached error status.",
	}); err != nil {
		return nil, fmt.Errorf("registering failed counter: %w", err)
	}
	if r.runsCompleted, err = reg.NewCounter(prometheus.CounterOpts{
		Name: "setup_runs_completed_total",
		Help: "Onboarding runs that reached 100 percent.",
	}); err != nil {
		return nil, fmt.Errorf("registering runs counter: %w", err)
	}
	if r.stats, err = reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "setup_stat",
		Help: "Named counters reported by setup steps.",
	}, []string{"name"}); err != nil {
		return nil, fmt.Errorf("registering stats gauge: %w", err)
	}

	return r, nil
}

// StateChanged implements wizard.Listener.
func (r *Recorder) StateChanged(view wizard.StateView) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress.Set(float64(view.GlobalProgress))
	r.warnings.Set(float64(view.Warnings))

	counts := make(map[wizard.StepStatus]int)
	for id, st := range view.Statuses {
		counts[st]++
		prev, seen := r.prev[id]
		if seen && prev == st {
			continue
		}
		switch st {
		case wizard.StatusCompleted:
			r.stepsCompleted.Inc()
		case wizard.StatusError:
			r.stepsFailed.Inc()
		}
		r.prev[id] = st
	}

	for _, st := range []wizard.StepStatus{
		wizard.StatusPending, wizard.StatusRunning, wizard.StatusCompleted, wizard.StatusError,
	} {
		r.stepsByStatus.With(prometheus.Labels{"status": st.String()}).Set(float64(counts[st]))
	}

	for name, value := range view.Stats {
		r.stats.With(prometheus.Labels{"name": name}).Set(float64(value))
	}

	if view.GlobalProgress >= 100 {
		if !r.done {
			r.runsCompleted.Inc()
			r.done = true
		}
	} else {
		// A reset or restart re-arms the completion counter.
		r.done = false
	}
}
