package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoforge/onboard/wizard"
)

func scrapeBody(t *testing.T, reg *ScrapeRegistry) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	reg.Handler().ServeHTTP(w, req)
	return w.Body.String()
}

func TestRecorderStateChanged(t *testing.T) {
	reg, err := NewScrapeRegistry()
	require.NoError(t, err)
	rec, err := NewRecorder(reg)
	require.NoError(t, err)

	rec.StateChanged(wizard.StateView{
		Statuses: map[string]wizard.StepStatus{
			"a": wizard.StatusCompleted,
			"b": wizard.StatusRunning,
			"c": wizard.StatusPending,
		},
		GlobalProgress: 40,
		Stats:          wizard.Stats{"pagesDiscovered": 12},
	})

	body := scrapeBody(t, reg)
	assert.Contains(t, body, `setup_progress_percent 40`)
	assert.Contains(t, body, `setup_steps_completed_total 1`)
	assert.Contains(t, body, `setup_steps{status="running"} 1`)
	assert.Contains(t, body, `setup_stat{name="pagesDiscovered"} 12`)
}

// Re-delivering the same statuses must not double-count transitions.
func TestRecorderCountsTransitionsOnce(t *testing.T) {
	reg, err := NewScrapeRegistry()
	require.NoError(t, err)
	rec, err := NewRecorder(reg)
	require.NoError(t, err)

	view := wizard.StateView{
		Statuses:       map[string]wizard.StepStatus{"a": wizard.StatusError},
		GlobalProgress: 5,
		Warnings:       1,
	}
	rec.StateChanged(view)
	rec.StateChanged(view)

	body := scrapeBody(t, reg)
	assert.Contains(t, body, `setup_steps_failed_total 1`)
	assert.Contains(t, body, `setup_warnings 1`)
}

func TestRecorderRunCompletion(t *testing.T) {
	reg, err := NewScrapeRegistry()
	require.NoError(t, err)
	rec, err := NewRecorder(reg)
	require.NoError(t, err)

	done := wizard.StateView{
		Statuses:       map[string]wizard.StepStatus{"a": wizard.StatusCompleted},
		GlobalProgress: 100,
	}
	rec.StateChanged(done)
	rec.StateChanged(done) // duplicate delivery, still one run

	body := scrapeBody(t, reg)
	assert.Contains(t, body, `setup_runs_completed_total 1`)

	// A reset and a second completion count again.
	rec.StateChanged(wizard.StateView{
		Statuses:       map[string]wizard.StepStatus{"a": wizard.StatusPending},
		GlobalProgress: 0,
	})
	rec.StateChanged(done)

	body = scrapeBody(t, reg)
	assert.Contains(t, body, `setup_runs_completed_total 2`)
}
