package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/seoforge/onboard/backend"
	"github.com/seoforge/onboard/logging"
)

// defaultMinStepDuration is the minimum wall time a step occupies. Steps
// that finish faster wait out the remainder so the UI never flickers
// through instant completions. This pacing is a product requirement, not
// slack to trim.
const defaultMinStepDuration = 500 * time.Millisecond

// Collaborator is the uniform call-and-optionally-poll contract every
// remote behavior is invoked through. backend.Client is the production
// implementation.
type Collaborator interface {
	Call(ctx context.Context, endpoint string, payload map[string]any) (*backend.CallResult, error)
	JobStatus(ctx context.Context, jobID string) (*backend.JobState, error)
}

// HandlerContext carries everything a step handler may need. Handlers
// must pass Token into any waiting they do and respect Silent for
// user-visible output.
type HandlerContext struct {
	Context context.Context
	Backend Collaborator
	Poller  *Poller
	Logger  *slog.Logger
	Stream  *logging.Stream
	Token   Token
	Silent  bool
}

// StepHandler executes one step's bespoke behavior. Most steps use the
// executor's default endpoint path; handlers exist for steps with
// multi-call logic (enqueue a job, poll it, aggregate results).
type StepHandler interface {
	Execute(hc HandlerContext) (Stats, error)
}

// HandlerFunc adapts a function to the StepHandler interface.
type HandlerFunc func(hc HandlerContext) (Stats, error)

// Execute implements StepHandler.
func (f HandlerFunc) Execute(hc HandlerContext) (Stats, error) {
	return f(hc)
}

// Executor runs a single step: it invokes the step's collaborator, drives
// the poller for job-backed steps, and enforces the pacing floor.
type Executor struct {
	backend  Collaborator
	poller   *Poller
	handlers map[string]StepHandler
	logger   *slog.Logger
	stream   *logging.Stream
	minStep  time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMinStepDuration overrides the pacing floor. Tests shrink it.
func WithMinStepDuration(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.minStep = d
	}
}

// WithHandler registers a bespoke handler for a step id.
func WithHandler(stepID string, h StepHandler) ExecutorOption {
	return func(e *Executor) {
		e.handlers[stepID] = h
	}
}

// WithHandlers registers a batch of bespoke handlers.
func WithHandlers(handlers map[string]StepHandler) ExecutorOption {
	return func(e *Executor) {
		for id, h := range handlers {
			e.handlers[id] = h
		}
	}
}

// NewExecutor creates an Executor over the given collaborator and poller.
func NewExecutor(collab Collaborator, poller *Poller, logger *slog.Logger, stream *logging.Stream, opts ...ExecutorOption) *Executor {
	e := &Executor{
		backend:  collab,
		poller:   poller,
		handlers: make(map[string]StepHandler),
		logger:   logger.With("component", "executor"),
		stream:   stream,
		minStep:  defaultMinStepDuration,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one step to completion and returns its stats contribution.
//
// Error taxonomy surfaced to the caller: *RemoteError (collaborator
// rejected the call or the job failed), ErrTimeout (polling budget
// exhausted), ErrAborted (user cancellation). Each maps to a different
// policy in the phase runners.
//
// If silent, per-substep stream lines are suppressed (parallel phases use
// this to avoid interleaved noise) while stats still accumulate.
func (e *Executor) Execute(ctx context.Context, step StepDefinition, token Token, silent bool) (Stats, error) {
	started := time.Now()

	stepLogger := e.logger.With("step", step.ID)
	stepLogger.Debug("executing step", "endpoint", step.Endpoint, "critical", step.Critical)

	var (
		stats Stats
		err   error
	)
	if handler, ok := e.handlers[step.ID]; ok {
		handlerLogger := stepLogger
		if !silent {
			// Bespoke handlers log through a stream-mirroring handler so
			// their records also reach the user-visible stream.
			handlerLogger = slog.New(logging.NewStreamHandler(stepLogger.Handler(), e.stream, step.ID))
		}
		stats, err = handler.Execute(HandlerContext{
			Context: ctx,
			Backend: e.backend,
			Poller:  e.poller,
			Logger:  handlerLogger,
			Stream:  e.stream,
			Token:   token,
			Silent:  silent,
		})
	} else {
		stats, err = e.executeDefault(ctx, step, token, silent)
	}

	// Pacing floor: wait out the remainder so real work shorter than the
	// floor still occupies it. Abort cuts the wait short; the outcome
	// already in hand stands.
	if err == nil || !errors.Is(err, ErrAborted) {
		if remaining := e.minStep - time.Since(started); remaining > 0 {
			token.Wait(remaining)
		}
	}

	if err != nil {
		err = normalizeStepError(step, err)
		stepLogger.Debug("step finished with error", "error", err, "elapsed", time.Since(started))
		return nil, err
	}
	stepLogger.Debug("step finished", "elapsed", time.Since(started))
	return stats, nil
}

// executeDefault is the generic step path: call the endpoint, and if the
// collaborator handed back a job id, poll that job to completion.
func (e *Executor) executeDefault(ctx context.Context, step StepDefinition, token Token, silent bool) (Stats, error) {
	if step.Endpoint == "" {
		// Marker steps carry no remote work of their own; they complete
		// immediately (or via AutoCompletedBy before ever reaching here).
		return Stats{}, nil
	}
	if token.Aborted() {
		return nil, ErrAborted
	}

	res, err := e.backend.Call(ctx, step.Endpoint, map[string]any{"step": step.ID})
	if err != nil {
		return nil, asRemoteError(step.Endpoint, err)
	}
	if token.Aborted() {
		return nil, ErrAborted
	}

	if !res.Async() {
		return NumericStats(res.Data), nil
	}

	result, err := e.poller.Poll(ctx, res.JobID, token, silent)
	if err != nil {
		return nil, err
	}
	return NumericStats(result), nil
}

// normalizeStepError folds handler errors into the taxonomy. Errors that
// already carry a taxonomy identity pass through untouched; anything else
// becomes a *RemoteError attributed to the step's endpoint.
func normalizeStepError(step StepDefinition, err error) error {
	var remoteErr *RemoteError
	if errors.Is(err, ErrAborted) || errors.Is(err, ErrTimeout) || errors.As(err, &remoteErr) {
		return err
	}
	return asRemoteError(step.Endpoint, err)
}

// asRemoteError maps collaborator failures into the wizard taxonomy.
// Application rejections and transport failures both surface as
// *RemoteError; the distinction lives in the message.
func asRemoteError(endpoint string, err error) error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return &RemoteError{Endpoint: endpoint, Message: apiErr.Message}
	}
	return &RemoteError{Endpoint: endpoint, Message: err.Error()}
}

// NumericStats extracts integer-valued counters from a result payload.
// Collaborators report stats as plain JSON numbers; non-numeric fields
// are ignored.
func NumericStats(data map[string]any) Stats {
	stats := make(Stats)
	for k, v := range data {
		switch n := v.(type) {
		case float64:
			stats[k] = int64(n)
		case int:
			stats[k] = int64(n)
		case int64:
			stats[k] = n
		case json.Number:
			if i, err := n.Int64(); err == nil {
				stats[k] = i
			}
		}
	}
	return stats
}
