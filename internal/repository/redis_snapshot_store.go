package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"RSIPulse/internal/domain/models"
	domrepo "RSIPulse/internal/domain/repository"
	applogger "RSIPulse/pkg/logger"
)

const snapshotKey = "rsipulse:snapshots"

// RedisSnapshotStore implements SnapshotStore on a Redis hash. One field per
// pair keeps LoadAll a single HGETALL on startup.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
	l      *applogger.Logger
}

// RedisSnapshotOption configures RedisSnapshotStore.
type RedisSnapshotOption func(*RedisSnapshotStore)

// WithSnapshotKey sets a custom hash key.
func WithSnapshotKey(key string) RedisSnapshotOption {
	return func(s *RedisSnapshotStore) {
		if key != "" {
			s.key = key
		}
	}
}

// NewRedisSnapshotStore creates a Redis snapshot store.
func NewRedisSnapshotStore(client *redis.Client, lgr *applogger.Logger, opts ...RedisSnapshotOption) domrepo.SnapshotStore {
	s := &RedisSnapshotStore{client: client, key: snapshotKey, l: lgr}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func fieldFor(symbol string, tf models.Timeframe) string {
	return symbol + "|" + string(tf)
}

func (s *RedisSnapshotStore) Save(ctx context.Context, snap *models.PairSnapshot) error {
	snap.SavedAt = time.Now()
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, fieldFor(snap.Symbol, snap.Timeframe), b).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) LoadAll(ctx context.Context) ([]models.PairSnapshot, error) {
	entries, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	out := make([]models.PairSnapshot, 0, len(entries))
	for field, raw := range entries {
		var snap models.PairSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			if s.l != nil {
				s.l.Warn("skipping corrupt snapshot",
					applogger.String("field", field),
					applogger.Error(err))
			}
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, pair models.Pair) error {
	if err := s.client.HDel(ctx, s.key, fieldFor(pair.Symbol, pair.Timeframe)).Err(); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Close() error {
	return s.client.Close()
}
