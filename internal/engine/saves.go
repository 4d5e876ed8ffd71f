package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aberthier/conteur/internal/storage"
	"github.com/aberthier/conteur/pkg/state"
)

// SaveManager bridges sessions and the persistence backend. Snapshots are
// taken and restored through the session's own codec, so illustrations
// come back imageless but regenerable.
type SaveManager struct {
	store  storage.Storage
	logger *slog.Logger
	now    func() time.Time
}

func NewSaveManager(store storage.Storage, logger *slog.Logger) *SaveManager {
	return &SaveManager{store: store, logger: logger, now: time.Now}
}

// WithClock overrides the timestamp source.
func (m *SaveManager) WithClock(now func() time.Time) *SaveManager {
	m.now = now
	return m
}

// Save persists the session under name, overwriting a previous save with
// the same name.
func (m *SaveManager) Save(ctx context.Context, sess *state.SessionState, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("save name is required")
	}
	snap := sess.Snapshot(m.now().UTC())
	if err := m.store.SaveSession(ctx, name, snap); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	m.logger.Info("session saved", "session_id", sess.ID, "save", name, "turn", sess.CurrentTurn)
	return nil
}

// Load restores the session saved under name, or nil when no such save
// exists.
func (m *SaveManager) Load(ctx context.Context, name string) (*state.SessionState, error) {
	snap, err := m.store.LoadSession(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if snap == nil {
		return nil, nil
	}
	sess := state.RestoreSession(snap)
	m.logger.Info("session loaded", "session_id", sess.ID, "save", name, "turn", sess.CurrentTurn)
	return sess, nil
}

// List returns save summaries, newest first.
func (m *SaveManager) List(ctx context.Context) ([]storage.SaveSummary, error) {
	saves, err := m.store.ListSaves(ctx)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	return saves, nil
}

// Delete removes a save.
func (m *SaveManager) Delete(ctx context.Context, name string) error {
	if err := m.store.DeleteSave(ctx, name); err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	return nil
}
