package interest

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store defines the interface for interest profile persistence.
type Store interface {
	// Apply atomically adjusts the score of one (user, dimension, label) row
	// by delta, clamping the result to [0, 1], incrementing the interaction
	// count and updating the last-updated timestamp. The row is created with
	// a zero base score if it does not exist.
	Apply(ctx context.Context, userID string, dim Dimension, label string, delta float64) error

	// GetProfile returns all interest rows for a user keyed by dimension.
	GetProfile(ctx context.Context, userID string) ([]*UserInterest, error)

	// TopByDimension returns a user's interest rows for one dimension,
	// ordered by score descending, capped at limit.
	TopByDimension(ctx context.Context, userID string, dim Dimension, limit int) ([]*UserInterest, error)
}

// rowKey uniquely identifies one interest row.
type rowKey struct {
	userID string
	dim    Dimension
	label  string
}

// InMemoryStore is an in-memory implementation of Store.
// The single mutex serializes each read-modify-write in Apply, which
// keeps concurrent interactions from the same user from losing updates.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[rowKey]*UserInterest
}

// NewInMemoryStore creates a new in-memory interest store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[rowKey]*UserInterest)}
}

// Apply atomically adjusts one interest row, clamping the score to [0, 1].
func (s *InMemoryStore) Apply(ctx context.Context, userID string, dim Dimension, label string, delta float64) error {
	if label == "" {
		return ErrMissingLabel
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := rowKey{userID: userID, dim: dim, label: label}
	row, ok := s.rows[key]
	if !ok {
		row = &UserInterest{UserID: userID, Dimension: dim, Label: label}
		s.rows[key] = row
	}

	row.Score = clamp(row.Score + delta)
	row.InteractionCount++
	row.LastUpdated = time.Now()
	return nil
}

// GetProfile returns all interest rows for a user.
func (s *InMemoryStore) GetProfile(ctx context.Context, userID string) ([]*UserInterest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*UserInterest
	for key, row := range s.rows {
		if key.userID != userID {
			continue
		}
		cp := *row
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// TopByDimension returns a user's top interest rows for one dimension.
func (s *InMemoryStore) TopByDimension(ctx context.Context, userID string, dim Dimension, limit int) ([]*UserInterest, error) {
	all, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []*UserInterest
	for _, row := range all {
		if row.Dimension != dim {
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
