package storage

import (
	"context"
	"time"

	"github.com/aberthier/conteur/pkg/state"
)

// SaveSummary describes one saved game for listing without loading the
// full snapshot.
type SaveSummary struct {
	Name       string    `json:"name"`
	SavedAt    time.Time `json:"saved_at"`
	PlayerName string    `json:"player_name"`
	Theme      string    `json:"theme"`
	SubTheme   string    `json:"sub_theme,omitempty"`
	Hero       string    `json:"hero"`
	Turn       int       `json:"turn"`
	MaxTurns   int       `json:"max_turns"`
}

// Storage persists session snapshots under player-chosen save names.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	// SaveSession writes the snapshot under name, overwriting any
	// previous save with that name.
	SaveSession(ctx context.Context, name string, snap *state.SessionSnapshot) error

	// LoadSession returns the snapshot saved under name, or nil when no
	// such save exists.
	LoadSession(ctx context.Context, name string) (*state.SessionSnapshot, error)

	// ListSaves returns summaries for every save, newest first.
	ListSaves(ctx context.Context) ([]SaveSummary, error)

	DeleteSave(ctx context.Context, name string) error
}
