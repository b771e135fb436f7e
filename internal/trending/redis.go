package trending

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// snapshotKey is the Redis key holding the serialized trending snapshot.
const snapshotKey = "trending:snapshot"

// DefaultSnapshotTTL bounds how long a stale snapshot survives when the
// trending job stops running.
const DefaultSnapshotTTL = 24 * time.Hour

// RedisSnapshotStore implements SnapshotStore backed by Redis, letting
// multiple API replicas share one trending snapshot.
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshotStore creates a Redis-backed snapshot store.
// A non-positive TTL falls back to DefaultSnapshotTTL.
func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

// Save stores a snapshot, replacing any previous one.
func (s *RedisSnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal trending snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store trending snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot.
func (s *RedisSnapshotStore) Latest(ctx context.Context) (*Snapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trending snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trending snapshot: %w", err)
	}
	return &snap, nil
}
