package wizard

import (
	"context"
	"log/slog"
	"time"

	"github.com/seoforge/onboard/backend"
	"github.com/seoforge/onboard/logging"
)

// Poll tuning defaults: a job gets up to 5 minutes (150 x 2s) before the
// budget is exhausted, and progress lines are throttled to every 4th
// attempt to keep the stream readable.
const (
	defaultPollInterval    = 2 * time.Second
	defaultPollMaxAttempts = 150
	defaultPollLogEvery    = 4
)

// PollConfig bounds a polling loop.
type PollConfig struct {
	// Interval is the wait between status fetches. Each interval is
	// sliced into short ticks so aborts are noticed promptly.
	Interval time.Duration

	// MaxAttempts caps the number of status fetches before ErrTimeout.
	MaxAttempts int

	// LogEvery throttles progress lines to every Nth attempt.
	LogEvery int
}

func (c PollConfig) withDefaults() PollConfig {
	if c.Interval <= 0 {
		c.Interval = defaultPollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultPollMaxAttempts
	}
	if c.LogEvery <= 0 {
		c.LogEvery = defaultPollLogEvery
	}
	return c
}

// JobWatcher is the slice of the collaborator contract the poller needs.
type JobWatcher interface {
	JobStatus(ctx context.Context, jobID string) (*backend.JobState, error)
}

// Poller drives a background job to a terminal state within a bounded
// polling budget.
type Poller struct {
	watcher JobWatcher
	logger  *slog.Logger
	stream  *logging.Stream
	cfg     PollConfig
}

// NewPoller creates a Poller. A nil stream disables user-visible progress
// lines; process logs still flow through logger.
func NewPoller(watcher JobWatcher, logger *slog.Logger, stream *logging.Stream, cfg PollConfig) *Poller {
	return &Poller{
		watcher: watcher,
		logger:  logger.With("component", "poller"),
		stream:  stream,
		cfg:     cfg.withDefaults(),
	}
}

// Poll waits for jobID to finish and returns its result payload.
//
// Outcomes:
//   - job completed: the result payload, nil error
//   - job failed: *RemoteError (job failure is not transient, no retry)
//   - budget exhausted: ErrTimeout
//   - token aborted at any check point: ErrAborted, within one tick
//
// Transport errors fetching status are logged and retried; they consume
// an attempt, so a dead collaborator still ends in ErrTimeout.
func (p *Poller) Poll(ctx context.Context, jobID string, token Token, silent bool) (map[string]any, error) {
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if !token.Wait(p.cfg.Interval) {
			p.logger.Debug("poll aborted", "job_id", jobID, "attempt", attempt)
			return nil, ErrAborted
		}

		state, err := p.watcher.JobStatus(ctx, jobID)
		if err != nil {
			p.logger.Warn("job status fetch failed", "job_id", jobID, "attempt", attempt, "error", err)
			continue
		}

		switch state.Status {
		case backend.JobCompleted:
			p.logger.Debug("job completed", "job_id", jobID, "attempts", attempt)
			return state.Result, nil
		case backend.JobFailed:
			return nil, &RemoteError{Endpoint: "jobs/" + jobID, Message: state.Error}
		}

		if !silent && p.stream != nil && attempt%p.cfg.LogEvery == 0 {
			p.stream.Setf("job:"+jobID, logging.SeverityInfo,
				"working… %d%% (check %d of %d)", state.Progress, attempt, p.cfg.MaxAttempts)
		}
	}

	p.logger.Warn("job polling budget exhausted", "job_id", jobID, "attempts", p.cfg.MaxAttempts)
	return nil, ErrTimeout
}
