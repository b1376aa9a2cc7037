package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Identity: IdentityConfig{Tenant: "acme", Site: "acme.com"},
		Backend: BackendConfig{
			BaseURL: "https://api.example.com",
			Token:   "token123",
			Timeout: 30 * time.Second,
		},
		Wizard: WizardConfig{
			MinStepDuration: 500 * time.Millisecond,
			PollInterval:    2 * time.Second,
			PollMaxAttempts: 150,
			LogBuffer:       200,
		},
		Persistence: PersistenceConfig{Backend: "file", Dir: "/tmp/state"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing tenant",
			mutate:  func(c *Config) { c.Identity.Tenant = "" },
			wantErr: true,
		},
		{
			name:    "missing site",
			mutate:  func(c *Config) { c.Identity.Site = "" },
			wantErr: true,
		},
		{
			name:    "missing backend base URL",
			mutate:  func(c *Config) { c.Backend.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "non-positive backend timeout",
			mutate:  func(c *Config) { c.Backend.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative min step duration",
			mutate:  func(c *Config) { c.Wizard.MinStepDuration = -time.Second },
			wantErr: true,
		},
		{
			name:    "non-positive poll interval",
			mutate:  func(c *Config) { c.Wizard.PollInterval = 0 },
			wantErr: true,
		},
		{
			name:    "unknown persistence backend",
			mutate:  func(c *Config) { c.Persistence.Backend = "etcd" },
			wantErr: true,
		},
		{
			name: "file backend without dir",
			mutate: func(c *Config) {
				c.Persistence.Backend = "file"
				c.Persistence.Dir = ""
			},
			wantErr: true,
		},
		{
			name: "sqlite backend without db path",
			mutate: func(c *Config) {
				c.Persistence.Backend = "sqlite"
				c.Persistence.DBPath = ""
			},
			wantErr: true,
		},
		{
			name: "memory backend needs no paths",
			mutate: func(c *Config) {
				c.Persistence = PersistenceConfig{Backend: "memory"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	if cfg.Backend.Timeout != 30*time.Second {
		t.Errorf("Backend.Timeout default = %v, want %v", cfg.Backend.Timeout, 30*time.Second)
	}
	if cfg.Wizard.MinStepDuration != 500*time.Millisecond {
		t.Errorf("MinStepDuration default = %v, want %v", cfg.Wizard.MinStepDuration, 500*time.Millisecond)
	}
	if cfg.Wizard.PollInterval != 2*time.Second {
		t.Errorf("PollInterval default = %v, want %v", cfg.Wizard.PollInterval, 2*time.Second)
	}
	if cfg.Wizard.PollMaxAttempts != 150 {
		t.Errorf("PollMaxAttempts default = %v, want %v", cfg.Wizard.PollMaxAttempts, 150)
	}
	if cfg.Wizard.LogBuffer != 200 {
		t.Errorf("LogBuffer default = %v, want %v", cfg.Wizard.LogBuffer, 200)
	}
	if cfg.Persistence.Backend != "file" {
		t.Errorf("Persistence.Backend default = %v, want file", cfg.Persistence.Backend)
	}
	if cfg.Persistence.Dir != "./state" {
		t.Errorf("Persistence.Dir default = %v, want ./state", cfg.Persistence.Dir)
	}
	if cfg.Monitoring.MetricsPrefix != "onboard" {
		t.Errorf("MetricsPrefix default = %v, want onboard", cfg.Monitoring.MetricsPrefix)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level default = %v, want info", cfg.Logging.Level)
	}
}

func TestLoadConfig(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "onboard_config_test.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name())

	content := `identity:
  tenant: acme
  site: acme.com
backend:
  base_url: https://api.example.com
  token: token123
  timeout: 10s
wizard:
  min_step_duration: 250ms
  poll_interval: 1s
persistence:
  backend: sqlite
  db_path: /var/lib/onboard/state.db
refresh:
  spec: "discovery:0 3 * * *;data-sync:30 3 * * *"
monitoring:
  victoriametrics_url: http://vm
`
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	tmpfile.Close()

	cfg, err := LoadConfig(tmpfile.Name())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}
	if cfg.Identity.Tenant != "acme" {
		t.Errorf("Identity.Tenant = %v, want acme", cfg.Identity.Tenant)
	}
	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("Backend.Timeout = %v, want %v", cfg.Backend.Timeout, 10*time.Second)
	}
	if cfg.Wizard.MinStepDuration != 250*time.Millisecond {
		t.Errorf("MinStepDuration = %v, want %v", cfg.Wizard.MinStepDuration, 250*time.Millisecond)
	}
	if cfg.Persistence.DBPath != "/var/lib/onboard/state.db" {
		t.Errorf("Persistence.DBPath = %v, want /var/lib/onboard/state.db", cfg.Persistence.DBPath)
	}
	if cfg.Refresh.Spec == "" {
		t.Error("Refresh.Spec should survive loading")
	}

	// Unset fields picked up defaults.
	if cfg.Wizard.PollMaxAttempts != 150 {
		t.Errorf("PollMaxAttempts = %v, want default 150", cfg.Wizard.PollMaxAttempts)
	}
	if cfg.Monitoring.JobName != "onboard" {
		t.Errorf("JobName = %v, want default onboard", cfg.Monitoring.JobName)
	}
}

func TestLoadConfig_InvalidRejected(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "onboard_config_test.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name())

	// No identity stanza.
	content := `backend:
  base_url: https://api.example.com
`
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	tmpfile.Close()

	_, err = LoadConfig(tmpfile.Name())
	assert.Error(t, err)
}
