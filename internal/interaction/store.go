package interaction

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store defines the append-only interaction store interface.
type Store interface {
	// Append records a new interaction. The record is never mutated afterwards.
	Append(ctx context.Context, i *Interaction) error

	// ListByUser returns a user's interactions since the given time,
	// newest first.
	ListByUser(ctx context.Context, userID string, since time.Time) ([]*Interaction, error)

	// CountSince returns the number of interactions of the given types per
	// article since the given time. Used by the trending tracker.
	CountSince(ctx context.Context, since time.Time, types ...Type) (map[string]int64, error)
}

// InMemoryStore is an in-memory implementation of Store.
// Thread-safe via RWMutex.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []*Interaction
}

// NewInMemoryStore creates a new in-memory interaction store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append records a new interaction.
func (s *InMemoryStore) Append(ctx context.Context, i *Interaction) error {
	if err := i.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *i
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now()
	}
	i.ID = cp.ID
	i.Timestamp = cp.Timestamp

	s.events = append(s.events, &cp)
	return nil
}

// ListByUser returns a user's interactions since the given time, newest first.
func (s *InMemoryStore) ListByUser(ctx context.Context, userID string, since time.Time) ([]*Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Interaction
	for _, e := range s.events {
		if e.UserID != userID {
			continue
		}
		if !since.IsZero() && e.Timestamp.Before(since) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// CountSince returns interaction counts per article since the given time,
// restricted to the given types (all types when none are given).
func (s *InMemoryStore) CountSince(ctx context.Context, since time.Time, types ...Type) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[Type]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	counts := make(map[string]int64)
	for _, e := range s.events {
		if !since.IsZero() && e.Timestamp.Before(since) {
			continue
		}
		if len(wanted) > 0 && !wanted[e.Type] {
			continue
		}
		counts[e.ArticleID]++
	}
	return counts, nil
}
