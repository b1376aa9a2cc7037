package snapshot

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoforge/onboard/wizard"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testView() wizard.StateView {
	return wizard.StateView{
		Statuses: map[string]wizard.StepStatus{
			"detect-site": wizard.StatusCompleted,
			"verify-site": wizard.StatusError,
		},
		CurrentStepIndex: 1,
		GlobalProgress:   7,
		Stats:            wizard.Stats{"pagesDiscovered": 12},
		FailedStep:       &wizard.FailedStep{StepID: "verify-site", Message: "dns record missing", Index: 1},
		HasStarted:       true,
		Warnings:         1,
	}
}

func TestManagerRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	key := Key{Tenant: "acme", Site: "acme.com"}

	m := NewManager(store, key, discardLogger())
	m.StateChanged(testView())

	// A second manager over the same store sees the saved state and adopts
	// the saved run id.
	m2 := NewManager(store, key, discardLogger())
	require.NotEqual(t, m.RunID(), m2.RunID())

	view, ok := m2.Load()
	require.True(t, ok)
	assert.Equal(t, m.RunID(), m2.RunID())
	assert.Equal(t, 7, view.GlobalProgress)
	assert.Equal(t, wizard.StatusError, view.Statuses["verify-site"])
	require.NotNil(t, view.FailedStep)
	assert.Equal(t, "verify-site", view.FailedStep.StepID)
	assert.Equal(t, int64(12), view.Stats["pagesDiscovered"])
	assert.True(t, view.HasStarted)
}

func TestManagerLoadAbsent(t *testing.T) {
	m := NewManager(NewMemoryStore(), Key{Tenant: "acme", Site: "acme.com"}, discardLogger())
	_, ok := m.Load()
	assert.False(t, ok)
}

func TestManagerClear(t *testing.T) {
	store := NewMemoryStore()
	key := Key{Tenant: "acme", Site: "acme.com"}

	m := NewManager(store, key, discardLogger())
	m.StateChanged(testView())
	m.Clear()

	_, ok := m.Load()
	assert.False(t, ok)
}

func TestManagerIdentityIsolation(t *testing.T) {
	store := NewMemoryStore()

	a := NewManager(store, Key{Tenant: "acme", Site: "acme.com"}, discardLogger())
	a.StateChanged(testView())

	b := NewManager(store, Key{Tenant: "acme", Site: "other.com"}, discardLogger())
	_, ok := b.Load()
	assert.False(t, ok, "a different site never sees another site's snapshot")
}

func TestManagerCorruptSnapshotIgnored(t *testing.T) {
	corrupt := [][]byte{
		[]byte("not json"),
		// Valid JSON whose status values are not the strings this
		// version writes, as an older or hand-edited snapshot may hold.
		[]byte(`{"run_id":"r1","state":{"step_statuses":{"detect-site":0}}}`),
		[]byte(`{"run_id":"r1","state":{"step_statuses":{"detect-site":true}}}`),
	}

	for _, data := range corrupt {
		store := NewMemoryStore()
		key := Key{Tenant: "acme", Site: "acme.com"}
		require.NoError(t, store.Set(key.String(), data))

		m := NewManager(store, key, discardLogger())
		_, ok := m.Load()
		assert.False(t, ok, "snapshot %s must be ignored", data)
	}
}

// failingStore always errors; saves must be swallowed, loads must report
// absence.
type failingStore struct{}

func (failingStore) Get(string) ([]byte, bool, error) { return nil, false, errors.New("disk gone") }
func (failingStore) Set(string, []byte) error         { return errors.New("disk gone") }
func (failingStore) Remove(string) error              { return errors.New("disk gone") }

func TestManagerBestEffort(t *testing.T) {
	m := NewManager(failingStore{}, Key{Tenant: "acme", Site: "acme.com"}, discardLogger())

	// None of these may panic or surface an error.
	m.StateChanged(testView())
	_, ok := m.Load()
	assert.False(t, ok)
	m.Clear()
}
