package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/aberthier/conteur/pkg/state"
)

const (
	savePrefix   = "save:"
	saveIndexKey = "saves"
)

// RedisStorage keeps each save as a JSON document under "save:<name>" and
// a summary in the "saves" hash so listing never loads full snapshots.
type RedisStorage struct {
	client *redis.Client
}

var _ Storage = (*RedisStorage)(nil)

func NewRedisStorage(addr string) *RedisStorage {
	return &RedisStorage{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}

func (r *RedisStorage) SaveSession(ctx context.Context, name string, snap *state.SessionSnapshot) error {
	if name == "" {
		return fmt.Errorf("save name is required")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	summary, err := json.Marshal(SaveSummary{
		Name:       name,
		SavedAt:    snap.SavedAt,
		PlayerName: snap.PlayerName,
		Theme:      snap.Theme,
		SubTheme:   snap.SubTheme,
		Hero:       snap.Hero,
		Turn:       snap.CurrentTurn,
		MaxTurns:   snap.MaxTurns,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, savePrefix+name, data, 0)
	pipe.HSet(ctx, saveIndexKey, name, summary)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session %s: %w", name, err)
	}
	return nil
}

func (r *RedisStorage) LoadSession(ctx context.Context, name string) (*state.SessionSnapshot, error) {
	data, err := r.client.Get(ctx, savePrefix+name).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", name, err)
	}

	var snap state.SessionSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", name, err)
	}
	return &snap, nil
}

func (r *RedisStorage) ListSaves(ctx context.Context) ([]SaveSummary, error) {
	entries, err := r.client.HGetAll(ctx, saveIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}

	summaries := make([]SaveSummary, 0, len(entries))
	for name, raw := range entries {
		var s SaveSummary
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			// Unreadable index entries are skipped rather than failing
			// the whole listing.
			continue
		}
		s.Name = name
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SavedAt.After(summaries[j].SavedAt)
	})
	return summaries, nil
}

func (r *RedisStorage) DeleteSave(ctx context.Context, name string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, savePrefix+name)
	pipe.HDel(ctx, saveIndexKey, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete save %s: %w", name, err)
	}
	return nil
}
