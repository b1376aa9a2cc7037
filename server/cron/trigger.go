// Package cron schedules maintenance refreshes of onboarding phases.
//
// A refresh re-runs an already-completed phase (re-crawl the site,
// re-sync data) on a cron schedule while the wizard is otherwise idle.
// The RefreshManager type parses a multi-trigger spec and runs one
// CronTrigger per entry until the context is cancelled.
package cron

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidCronSpec is returned when the cron specification cannot be parsed.
var ErrInvalidCronSpec = errors.New("invalid cron spec")

// CronTrigger executes a job according to a cron schedule.
type CronTrigger struct {
	spec     string
	schedule cron.Schedule
	job      func() error
	logger   *slog.Logger
}

// NewCronTrigger creates a new CronTrigger with the given cron specification.
// The spec follows standard cron format (5 fields: minute, hour, day, month, weekday).
// Returns ErrInvalidCronSpec if the specification cannot be parsed.
func NewCronTrigger(spec string, job func() error, logger *slog.Logger) (*CronTrigger, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidCronSpec, err)
	}

	return &CronTrigger{
		spec:     spec,
		schedule: schedule,
		job:      job,
		logger:   logger,
	}, nil
}

// Start launches a goroutine that triggers the job according to the cron
// schedule. Returns immediately. The goroutine exits when ctx is cancelled.
func (ct *CronTrigger) Start(ctx context.Context) {
	go ct.loop(ctx)
}

// NextRun returns the next scheduled run time from now.
func (ct *CronTrigger) NextRun() time.Time {
	return ct.schedule.Next(time.Now())
}

// loop is the main scheduling loop that runs in a goroutine.
func (ct *CronTrigger) loop(ctx context.Context) {
	for {
		nextRun := ct.schedule.Next(time.Now())
		waitDuration := time.Until(nextRun)

		ct.logger.Debug("waiting for next scheduled refresh",
			"next_run", nextRun,
			"wait_duration", waitDuration,
		)

		select {
		case <-ctx.Done():
			ct.logger.Info("cron trigger shutting down")
			return
		case <-time.After(waitDuration):
			ct.execute()
		}
	}
}

// execute runs the job and logs the result.
func (ct *CronTrigger) execute() {
	ct.logger.Info("starting scheduled refresh")

	if err := ct.job(); err != nil {
		ct.logger.Warn("scheduled refresh completed with error", "error", err)
	} else {
		ct.logger.Info("scheduled refresh completed successfully")
	}
}
