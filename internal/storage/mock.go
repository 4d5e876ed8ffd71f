package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aberthier/conteur/pkg/state"
)

// MockStorage is an in-memory Storage for tests. Behavior can be
// overridden per method through the Err fields.
type MockStorage struct {
	mu    sync.Mutex
	saves map[string]*state.SessionSnapshot

	PingErr   error
	SaveErr   error
	LoadErr   error
	ListErr   error
	DeleteErr error
}

var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{
		saves: make(map[string]*state.SessionSnapshot),
	}
}

func (m *MockStorage) Ping(ctx context.Context) error { return m.PingErr }
func (m *MockStorage) Close() error                   { return nil }

func (m *MockStorage) SaveSession(ctx context.Context, name string, snap *state.SessionSnapshot) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *snap
	m.saves[name] = &cp
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, name string) (*state.SessionSnapshot, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.saves[name]
	if !ok {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

func (m *MockStorage) ListSaves(ctx context.Context) ([]SaveSummary, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	summaries := make([]SaveSummary, 0, len(m.saves))
	for name, snap := range m.saves {
		summaries = append(summaries, SaveSummary{
			Name:       name,
			SavedAt:    snap.SavedAt,
			PlayerName: snap.PlayerName,
			Theme:      snap.Theme,
			SubTheme:   snap.SubTheme,
			Hero:       snap.Hero,
			Turn:       snap.CurrentTurn,
			MaxTurns:   snap.MaxTurns,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SavedAt.After(summaries[j].SavedAt)
	})
	return summaries, nil
}

func (m *MockStorage) DeleteSave(ctx context.Context, name string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saves, name)
	return nil
}

// Seed inserts a snapshot directly, bypassing error injection.
func (m *MockStorage) Seed(name string, snap *state.SessionSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now().UTC()
	}
	m.saves[name] = snap
}
