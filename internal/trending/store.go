package trending

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSnapshot is returned when no trending snapshot has been stored yet.
var ErrNoSnapshot = errors.New("no trending snapshot available")

// SnapshotStore persists the latest trending snapshot.
type SnapshotStore interface {
	// Save stores a snapshot, replacing any previous one.
	Save(ctx context.Context, s *Snapshot) error

	// Latest returns the most recent snapshot, or ErrNoSnapshot.
	Latest(ctx context.Context) (*Snapshot, error)
}

// InMemorySnapshotStore is an in-memory implementation of SnapshotStore.
// Thread-safe via RWMutex.
type InMemorySnapshotStore struct {
	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewInMemorySnapshotStore creates a new in-memory snapshot store.
func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{}
}

// Save stores a snapshot, replacing any previous one.
func (s *InMemorySnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *snap
	cp.Topics = append([]Topic(nil), snap.Topics...)
	s.snapshot = &cp
	return nil
}

// Latest returns the most recent snapshot.
func (s *InMemorySnapshotStore) Latest(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil, ErrNoSnapshot
	}

	cp := *s.snapshot
	cp.Topics = append([]Topic(nil), s.snapshot.Topics...)
	return &cp, nil
}
