package handlers

import (
	"net/http"

	"gopkg.in/yaml.v3"
)

// ConfigHandler serves the current application configuration as YAML.
// The backend token is redacted before serialization.
type ConfigHandler struct {
	provider ConfigProvider
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(provider ConfigProvider) *ConfigHandler {
	return &ConfigHandler{provider: provider}
}

// ServeHTTP implements http.Handler.
func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cfg := *h.provider.Config()
	if cfg.Backend.Token != "" {
		cfg.Backend.Token = "REDACTED"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "failed to serialize configuration",
		})
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
