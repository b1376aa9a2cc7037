// Package handlers provides HTTP handlers for the onboard server.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"context"
	"time"

	"github.com/seoforge/onboard/config"
	"github.com/seoforge/onboard/logging"
	"github.com/seoforge/onboard/wizard"
)

// StatusProvider provides access to the current run status.
type StatusProvider interface {
	Status() wizard.Status
}

// LogProvider provides access to the user-visible log stream.
type LogProvider interface {
	Logs() []logging.Entry
}

// PlanProvider provides access to the compiled phase plan.
type PlanProvider interface {
	Plan() *wizard.Plan
}

// ConfigProvider provides access to the current application configuration.
type ConfigProvider interface {
	Config() *config.Config
}

// NextRefreshProvider reports the next scheduled maintenance refresh.
type NextRefreshProvider interface {
	NextRefresh() *time.Time
}

// WizardController exposes the run control operations. The wizard itself
// is the production implementation.
type WizardController interface {
	Start(ctx context.Context) error
	StartFresh() error
	RetryFromFailed(ctx context.Context) error
	Skip(ctx context.Context) error
	RestartFromStep(ctx context.Context, index int) error
	StopAndRestartCurrentStep(ctx context.Context) error
	Stop()
}
