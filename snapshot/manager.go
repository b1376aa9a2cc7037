package snapshot

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/seoforge/onboard/wizard"
)

// Key identifies whose run state a snapshot belongs to. Every tenant/site
// pair gets its own slot; switching sites never bleeds state across.
type Key struct {
	Tenant string
	Site   string
}

// String returns the store key for this identity.
func (k Key) String() string {
	return k.Tenant + "/" + k.Site
}

// Snapshot is the persisted document: the run state plus provenance.
type Snapshot struct {
	RunID   string           `json:"run_id"`
	SavedAt time.Time        `json:"saved_at"`
	State   wizard.StateView `json:"state"`
}

// Manager implements wizard.StatePersister on top of a Store. Every state
// change overwrites the single snapshot slot for its identity; there is
// no history, only the latest resumable position.
type Manager struct {
	store  Store
	key    Key
	runID  string
	logger *slog.Logger
}

// NewManager creates a Manager for one identity.
func NewManager(store Store, key Key, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		key:    key,
		runID:  uuid.NewString(),
		logger: logger.With("component", "snapshot", "identity", key.String()),
	}
}

// RunID returns the identifier stamped on every snapshot this manager
// writes.
func (m *Manager) RunID() string {
	return m.runID
}

// StateChanged implements wizard.Listener. Persistence failures are
// logged and swallowed: the run must never notice a broken store.
func (m *Manager) StateChanged(view wizard.StateView) {
	snap := Snapshot{
		RunID:   m.runID,
		SavedAt: time.Now().UTC(),
		State:   view,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		m.logger.Warn("failed to serialize snapshot", "error", err)
		return
	}
	if err := m.store.Set(m.key.String(), data); err != nil {
		m.logger.Warn("failed to save snapshot", "error", err)
	}
}

// Load implements wizard.StatePersister. A missing or unreadable snapshot
// reports ok=false; corruption is logged, not returned, since the only
// recovery is starting fresh anyway.
func (m *Manager) Load() (*wizard.StateView, bool) {
	data, ok, err := m.store.Get(m.key.String())
	if err != nil {
		m.logger.Warn("failed to load snapshot", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		m.logger.Warn("failed to parse snapshot, ignoring it", "error", err)
		return nil, false
	}

	// Resuming adopts the saved run's identity so later saves continue it.
	if snap.RunID != "" {
		m.runID = snap.RunID
	}
	m.logger.Info("snapshot loaded", "run_id", snap.RunID, "saved_at", snap.SavedAt)
	return &snap.State, true
}

// Clear implements wizard.StatePersister.
func (m *Manager) Clear() {
	if err := m.store.Remove(m.key.String()); err != nil {
		m.logger.Warn("failed to clear snapshot", "error", err)
	}
}
