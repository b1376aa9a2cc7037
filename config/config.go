package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default backend settings
	defaultBackendTimeout = 30 * time.Second

	// Default wizard pacing
	defaultMinStepDuration = 500 * time.Millisecond
	defaultPollInterval    = 2 * time.Second
	defaultPollMaxAttempts = 150
	defaultLogBuffer       = 200

	// Default persistence settings
	defaultPersistenceBackend = "file"
	defaultStateDir           = "./state"

	// Default monitoring settings
	defaultMetricsPrefix = "onboard"
	defaultJobName       = "onboard"

	// Default logging settings
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
	defaultLogOutput = "stdout"
)

// Config represents the complete application configuration
type Config struct {
	Identity    IdentityConfig    `yaml:"identity"`
	Backend     BackendConfig     `yaml:"backend"`
	Wizard      WizardConfig      `yaml:"wizard"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Refresh     RefreshConfig     `yaml:"refresh"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// IdentityConfig names whose onboarding this instance drives
type IdentityConfig struct {
	Tenant string `yaml:"tenant"`
	Site   string `yaml:"site"`
}

// BackendConfig holds platform API connection settings
type BackendConfig struct {
	// BaseURL is the platform API root, e.g. https://api.example.com
	BaseURL string `yaml:"base_url"`

	// Token is the bearer token used on every call
	Token string `yaml:"token"`

	// Timeout bounds a single API call
	Timeout time.Duration `yaml:"timeout"`
}

// WizardConfig tunes run pacing and polling
type WizardConfig struct {
	// MinStepDuration is the minimum wall time a step occupies
	MinStepDuration time.Duration `yaml:"min_step_duration"`

	// PollInterval is the wait between background-job status checks
	PollInterval time.Duration `yaml:"poll_interval"`

	// PollMaxAttempts caps status checks before a job times out
	PollMaxAttempts int `yaml:"poll_max_attempts"`

	// LogBuffer is the retained line count of the user-visible stream
	LogBuffer int `yaml:"log_buffer"`
}

// PersistenceConfig selects the snapshot store
type PersistenceConfig struct {
	// Backend is one of: memory, file, sqlite
	Backend string `yaml:"backend"`

	// Dir holds snapshot files for the file backend
	Dir string `yaml:"dir"`

	// DBPath is the database location for the sqlite backend
	DBPath string `yaml:"db_path"`
}

// RefreshConfig schedules maintenance re-runs of individual phases
type RefreshConfig struct {
	// Spec is a semicolon-separated list of phase:cronexpr entries,
	// e.g. "discovery:0 3 * * *;data-sync:30 3 * * *"
	Spec string `yaml:"spec"`
}

// MonitoringConfig holds metrics and monitoring settings
type MonitoringConfig struct {
	VictoriaMetricsURL string `yaml:"victoriametrics_url"`
	MetricsPrefix      string `yaml:"metrics_prefix"`
	JobName            string `yaml:"jobname"`
}

// LoggingConfig defines logging behavior settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	Output    string `yaml:"output"`
	AddSource bool   `yaml:"add_source"`
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if c.Identity.Tenant == "" {
		return fmt.Errorf("identity tenant is required")
	}
	if c.Identity.Site == "" {
		return fmt.Errorf("identity site is required")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}
	if c.Wizard.MinStepDuration < 0 {
		return fmt.Errorf("min step duration must not be negative")
	}
	if c.Wizard.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Wizard.PollMaxAttempts <= 0 {
		return fmt.Errorf("poll max attempts must be positive")
	}
	switch c.Persistence.Backend {
	case "memory":
	case "file":
		if c.Persistence.Dir == "" {
			return fmt.Errorf("persistence dir is required for the file backend")
		}
	case "sqlite":
		if c.Persistence.DBPath == "" {
			return fmt.Errorf("persistence db_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown persistence backend %q", c.Persistence.Backend)
	}
	return nil
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = defaultBackendTimeout
	}
	if c.Wizard.MinStepDuration == 0 {
		c.Wizard.MinStepDuration = defaultMinStepDuration
	}
	if c.Wizard.PollInterval == 0 {
		c.Wizard.PollInterval = defaultPollInterval
	}
	if c.Wizard.PollMaxAttempts == 0 {
		c.Wizard.PollMaxAttempts = defaultPollMaxAttempts
	}
	if c.Wizard.LogBuffer == 0 {
		c.Wizard.LogBuffer = defaultLogBuffer
	}
	if c.Persistence.Backend == "" {
		c.Persistence.Backend = defaultPersistenceBackend
	}
	if c.Persistence.Backend == "file" && c.Persistence.Dir == "" {
		c.Persistence.Dir = defaultStateDir
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
}

// LoadConfig reads the YAML config file at the given path and returns a Config struct
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
