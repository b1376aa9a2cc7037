// Package server provides the HTTP server for the onboard setup wizard.
//
// The server exposes a REST API to monitor and drive a tenant's
// onboarding run: inspecting the phase plan, streaming the wizard's
// log lines, and issuing control actions (start, retry, skip, restart).
//
// # Endpoints
//
//   - GET /health - Simple health check, returns "ok"
//   - GET /api/status - Run status, state view, and next scheduled refresh
//   - GET /api/plan - The phase plan with per-step status metadata
//   - GET /api/logs - The bounded user-visible log stream
//   - GET /config - Returns current configuration as YAML (token redacted)
//   - GET /metrics - Prometheus scrape endpoint
//   - POST /api/start - Starts or resumes the onboarding run
//   - POST /api/start-fresh - Discards saved state and starts over
//   - POST /api/retry - Retries from the failed step
//   - POST /api/skip - Skips the failed step and continues
//   - POST /api/restart-from - Restarts from a given step index
//   - POST /api/stop-restart-step - Aborts and re-runs the current step
//   - POST /api/stop - Aborts the active run
//
// # Example
//
//	srv, err := server.New("/etc/onboard/server.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/seoforge/onboard/backend"
	"github.com/seoforge/onboard/buildinfo"
	"github.com/seoforge/onboard/config"
	"github.com/seoforge/onboard/logging"
	"github.com/seoforge/onboard/metrics"
	srvconfig "github.com/seoforge/onboard/server/config"
	"github.com/seoforge/onboard/server/cron"
	"github.com/seoforge/onboard/server/handlers"
	"github.com/seoforge/onboard/server/types"
	"github.com/seoforge/onboard/snapshot"
	"github.com/seoforge/onboard/steps"
	"github.com/seoforge/onboard/wizard"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Server is the HTTP server for the onboard API.
type Server struct {
	addr       string
	logger     *slog.Logger
	cfg        *config.Config
	wiz        *wizard.Wizard
	stream     *logging.Stream
	scrape     *metrics.ScrapeRegistry
	refresh    *cron.RefreshManager
	certLoader *CertLoader
	httpServer *http.Server
	props      types.ServerProperties
}

// Option configures a Server.
type Option func(*Server) error

// WithListenAddr overrides the listen address from the server config.
func WithListenAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// New creates a Server from the server config at the given path.
// It loads the application config, wires the wizard and its
// collaborator client, and restores any saved run state.
func New(serverConfigPath string, opts ...Option) (*Server, error) {
	srvCfg, err := srvconfig.LoadConfig(serverConfigPath)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(srvCfg.AppConfig)
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    cfg.Logging.Output,
		AddSource: cfg.Logging.AddSource,
	}
	if srvCfg.LogLevel != "" {
		logCfg.Level = srvCfg.LogLevel
	}
	appLogger, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}
	logger := appLogger.Logger

	s := &Server{
		addr:   srvCfg.Listener.Addr,
		logger: logger,
		cfg:    &cfg,
	}

	if srvCfg.Listener.CertFile != "" {
		loader, err := NewCertLoader(srvCfg.Listener.CertFile, srvCfg.Listener.KeyFile, logger)
		if err != nil {
			return nil, fmt.Errorf("loading tls certificate: %w", err)
		}
		s.certLoader = loader
	}

	if err := s.buildWizard(); err != nil {
		return nil, err
	}

	if cfg.Refresh.Spec != "" {
		available := make(map[string]bool)
		for _, ph := range steps.Phases() {
			available[ph.ID] = true
		}
		manager, err := cron.NewRefreshManager(cfg.Refresh.Spec, s, logger, available)
		if err != nil {
			return nil, fmt.Errorf("configuring refresh schedule: %w", err)
		}
		s.refresh = manager
	}

	hostname, _ := os.Hostname()
	s.props = types.ServerProperties{
		Build:     buildinfo.Get(),
		StartedAt: time.Now(),
		Hostname:  hostname,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// buildWizard assembles the wizard and its dependencies from the
// application config.
func (s *Server) buildWizard() error {
	cfg := s.cfg

	s.stream = logging.NewStream(cfg.Wizard.LogBuffer)

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Token,
		backend.WithTimeout(cfg.Backend.Timeout))

	poller := wizard.NewPoller(client, s.logger, s.stream, wizard.PollConfig{
		Interval:    cfg.Wizard.PollInterval,
		MaxAttempts: cfg.Wizard.PollMaxAttempts,
	})

	exec := wizard.NewExecutor(client, poller, s.logger, s.stream,
		wizard.WithMinStepDuration(cfg.Wizard.MinStepDuration),
		wizard.WithHandlers(steps.Handlers()),
	)

	plan, err := steps.NewPlan()
	if err != nil {
		return fmt.Errorf("building phase plan: %w", err)
	}

	store, err := s.openSnapshotStore()
	if err != nil {
		return err
	}
	persister := snapshot.NewManager(store, snapshot.Key{
		Tenant: cfg.Identity.Tenant,
		Site:   cfg.Identity.Site,
	}, s.logger)

	scrape, err := metrics.NewScrapeRegistry()
	if err != nil {
		return fmt.Errorf("creating metrics registry: %w", err)
	}
	s.scrape = scrape

	wizOpts := []wizard.Option{
		wizard.WithLogger(s.logger),
		wizard.WithStream(s.stream),
		wizard.WithPersister(persister),
	}

	recorder, err := metrics.NewRecorder(scrape)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	wizOpts = append(wizOpts, wizard.WithListener(recorder))

	if cfg.Monitoring.VictoriaMetricsURL != "" {
		push := metrics.NewPushRegistry(metrics.PushConfig{
			URL:      cfg.Monitoring.VictoriaMetricsURL,
			Prefix:   cfg.Monitoring.MetricsPrefix,
			Job:      cfg.Monitoring.JobName,
			Instance: cfg.Identity.Site,
			Logger:   s.logger,
		})
		pushRecorder, err := metrics.NewRecorder(push)
		if err != nil {
			return fmt.Errorf("registering push metrics: %w", err)
		}
		wizOpts = append(wizOpts, wizard.WithListener(pushRecorder))
	}

	s.wiz = wizard.New(plan, exec, wizOpts...)

	if s.wiz.Restore() {
		s.logger.Info("restored saved onboarding state",
			"progress", s.wiz.View().GlobalProgress)
	}

	return nil
}

// openSnapshotStore creates the snapshot store named by the
// persistence config.
func (s *Server) openSnapshotStore() (snapshot.Store, error) {
	p := s.cfg.Persistence
	switch p.Backend {
	case "memory":
		return snapshot.NewMemoryStore(), nil
	case "file":
		return snapshot.NewFileStore(p.Dir)
	case "sqlite":
		return snapshot.OpenSQLiteStore(p.DBPath)
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", p.Backend)
	}
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Config returns the application configuration.
func (s *Server) Config() *config.Config {
	return s.cfg
}

// Plan returns the compiled phase plan.
func (s *Server) Plan() *wizard.Plan {
	return s.wiz.Plan()
}

// Status returns the current wizard status.
func (s *Server) Status() wizard.Status {
	return s.wiz.Status()
}

// Logs returns the user-visible log stream entries.
func (s *Server) Logs() []logging.Entry {
	return s.stream.Entries()
}

// NextRefresh returns the next scheduled refresh time, or nil if no
// refresh schedule is configured.
func (s *Server) NextRefresh() *time.Time {
	if s.refresh == nil {
		return nil
	}
	next := s.refresh.NextRun()
	return &next
}

// RefreshPhase re-runs a single phase to completion. Used by the cron
// refresh scheduler.
func (s *Server) RefreshPhase(ctx context.Context, phaseID string) error {
	if err := s.wiz.RestartPhase(ctx, phaseID); err != nil {
		return err
	}
	s.wiz.Wait()

	if failed := s.wiz.View().FailedStep; failed != nil {
		return fmt.Errorf("phase %s halted at step %s: %s", phaseID, failed.StepID, failed.Message)
	}
	return nil
}

// Wizard returns the wizard instance. Exposed for the control handlers.
func (s *Server) Wizard() *wizard.Wizard {
	return s.wiz
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It performs a graceful shutdown when the context is done.
// If a refresh schedule is configured, it is started automatically.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	if s.refresh != nil {
		s.logger.Info("starting refresh scheduler",
			"next_run", s.refresh.NextRun(),
		)
		s.refresh.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", s.addr,
			"tenant", s.cfg.Identity.Tenant,
			"site", s.cfg.Identity.Site,
		)
		var err error
		if s.certLoader != nil {
			s.httpServer.TLSConfig = &tls.Config{
				GetCertificate: s.certLoader.GetCertificate,
			}
			err = s.httpServer.ListenAndServeTLS("", "")
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		s.wiz.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.Handle("GET /api/status", handlers.NewStatusHandler(s.logger, s, s, s.props))
	mux.Handle("GET /api/plan", handlers.NewPlanHandler(s))
	mux.Handle("GET /api/logs", handlers.NewLogsHandler(s))
	mux.Handle("GET /config", handlers.NewConfigHandler(s))
	mux.Handle("GET /metrics", s.scrape.Handler())

	for _, action := range []handlers.ControlAction{
		handlers.ActionStart,
		handlers.ActionStartFresh,
		handlers.ActionRetry,
		handlers.ActionSkip,
		handlers.ActionRestartFrom,
		handlers.ActionStopRestart,
		handlers.ActionStop,
	} {
		mux.Handle("POST /api/"+string(action), handlers.NewControlHandler(s.wiz, action))
	}
}
