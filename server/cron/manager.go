package cron

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// PhaseRefresher re-runs a single phase. The wizard is the production
// implementation; it rejects refreshes while a run is active.
type PhaseRefresher interface {
	RefreshPhase(ctx context.Context, phaseID string) error
}

// RefreshManager manages multiple CronTrigger instances, each re-running
// a set of phases on its own schedule.
type RefreshManager struct {
	triggers []*CronTrigger
	logger   *slog.Logger
}

// NewRefreshManager creates a RefreshManager from a multi-trigger specification.
// The spec format is: phase1,phase2:cron_expression;phase3:cron_expression2
//
// Example:
//
//	"discovery,data-sync:0 3 * * *;ai-setup:0 4 * * 0"
//
// Returns an error if:
//   - The spec is invalid or cannot be parsed
//   - Any phase name is not in availablePhases
//   - Any cron expression is invalid
func NewRefreshManager(spec string, refresher PhaseRefresher, logger *slog.Logger, availablePhases map[string]bool) (*RefreshManager, error) {
	triggerSpecs, err := ParseTriggerSpecs(spec, availablePhases)
	if err != nil {
		return nil, err
	}

	triggers := make([]*CronTrigger, 0, len(triggerSpecs))
	for _, ts := range triggerSpecs {
		phases := ts.Phases // capture for the closure
		job := func() error {
			return refreshPhases(refresher, phases)
		}

		trigger, err := NewCronTrigger(ts.CronSpec, job, logger)
		if err != nil {
			return nil, fmt.Errorf("creating trigger for '%s:%s': %w",
				strings.Join(ts.Phases, ","), ts.CronSpec, err)
		}
		triggers = append(triggers, trigger)
	}

	logger.Info("refresh manager created", "trigger_count", len(triggers))
	for i, trigger := range triggers {
		logger.Info("refresh trigger registered",
			"index", i,
			"phases", triggerSpecs[i].Phases,
			"schedule", triggerSpecs[i].CronSpec,
			"next_run", trigger.NextRun(),
		)
	}

	return &RefreshManager{
		triggers: triggers,
		logger:   logger,
	}, nil
}

// refreshPhases runs each phase to completion in order. A failing phase
// stops the batch: later phases usually consume the earlier one's data.
func refreshPhases(refresher PhaseRefresher, phases []string) error {
	for _, phaseID := range phases {
		if err := refresher.RefreshPhase(context.Background(), phaseID); err != nil {
			return fmt.Errorf("refreshing phase %s: %w", phaseID, err)
		}
	}
	return nil
}

// Start launches all triggers. Each trigger runs in its own goroutine.
// Returns immediately. All goroutines exit when ctx is cancelled.
func (m *RefreshManager) Start(ctx context.Context) {
	for _, trigger := range m.triggers {
		trigger.Start(ctx)
	}
}

// NextRun returns the earliest scheduled run time across all triggers.
// Returns zero time if there are no triggers.
func (m *RefreshManager) NextRun() time.Time {
	if len(m.triggers) == 0 {
		return time.Time{}
	}

	earliest := m.triggers[0].NextRun()
	for i := 1; i < len(m.triggers); i++ {
		next := m.triggers[i].NextRun()
		if next.Before(earliest) {
			earliest = next
		}
	}

	return earliest
}
