package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoforge/onboard/config"
)

type fakeConfig struct {
	cfg config.Config
}

func (f *fakeConfig) Config() *config.Config { return &f.cfg }

func TestConfigHandlerRedactsToken(t *testing.T) {
	provider := &fakeConfig{cfg: config.Config{
		Identity: config.IdentityConfig{Tenant: "acme", Site: "acme.com"},
		Backend: config.BackendConfig{
			BaseURL: "https://api.example.com",
			Token:   "super-secret",
			Timeout: 30 * time.Second,
		},
	}}

	h := NewConfigHandler(provider)
	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.NotContains(t, body, "super-secret")
	assert.Contains(t, body, "REDACTED")
	assert.Contains(t, body, "acme.com")

	// Redaction must not mutate the live config.
	assert.Equal(t, "super-secret", provider.cfg.Backend.Token)
}
