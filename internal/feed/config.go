// Package feed assembles ordered, scored feed pages from the article
// catalog, user interest profiles, and per-user feed configuration.
package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/newsreel/newsreel/internal/ranking"
)

// Algorithm selects the feed ranking variant.
type Algorithm string

// Supported feed algorithms.
const (
	// AlgorithmChronological orders purely by publish time, newest first.
	AlgorithmChronological Algorithm = "chronological"

	// AlgorithmPopular orders by the popularity sub-score.
	AlgorithmPopular Algorithm = "popular"

	// AlgorithmPersonalized doubles the personalization weight before
	// normalization and honors the preferred-category restriction.
	AlgorithmPersonalized Algorithm = "personalized"

	// AlgorithmBalanced uses the configured weights as-is.
	AlgorithmBalanced Algorithm = "balanced"

	// AlgorithmTrending restricts candidates to the current trending set.
	AlgorithmTrending Algorithm = "trending"

	// AlgorithmFollowing restricts candidates to articles authored by
	// followed users.
	AlgorithmFollowing Algorithm = "following"
)

// ParseAlgorithm validates an algorithm string. An empty string maps to
// the balanced default; anything unrecognized is an invalid request.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "":
		return AlgorithmBalanced, nil
	case AlgorithmChronological, AlgorithmPopular, AlgorithmPersonalized,
		AlgorithmBalanced, AlgorithmTrending, AlgorithmFollowing:
		return Algorithm(s), nil
	}
	return "", fmt.Errorf("%w: unknown algorithm %q", ErrUnknownAlgorithm, s)
}

// Configuration is the per-user weighting and filtering policy for ranking.
// Created with defaults on first use; updated by explicit preference change.
type Configuration struct {
	UserID              string          `json:"user_id"`
	Algorithm           Algorithm       `json:"algorithm"`
	Weights             ranking.Weights `json:"weights"`
	EnableSerendipity   bool            `json:"enable_serendipity"`
	PreferredCategories []string        `json:"preferred_categories,omitempty"`
	ExcludedCategories  []string        `json:"excluded_categories,omitempty"`
	BlockedSources      []string        `json:"blocked_sources,omitempty"`
	BlockedUsers        []string        `json:"blocked_users,omitempty"`
}

// DefaultConfiguration returns the policy a user gets before expressing
// any preference.
func DefaultConfiguration(userID string) *Configuration {
	return &Configuration{
		UserID:            userID,
		Algorithm:         AlgorithmBalanced,
		Weights:           *ranking.DefaultWeights(),
		EnableSerendipity: true,
	}
}

// ConfigStore persists per-user feed configurations.
type ConfigStore interface {
	// Get returns the user's configuration, creating the default on
	// first use.
	Get(ctx context.Context, userID string) (*Configuration, error)

	// Update replaces the user's configuration.
	Update(ctx context.Context, cfg *Configuration) error
}

// InMemoryConfigStore is an in-memory implementation of ConfigStore.
// Thread-safe via RWMutex.
type InMemoryConfigStore struct {
	mu      sync.RWMutex
	configs map[string]*Configuration

	// defaults seeds the weights for first-use configurations. Lets the
	// deployment's calibrated weights apply to users who never expressed
	// a preference.
	defaults ranking.Weights
}

// NewInMemoryConfigStore creates a new in-memory configuration store.
func NewInMemoryConfigStore() *InMemoryConfigStore {
	return &InMemoryConfigStore{
		configs:  make(map[string]*Configuration),
		defaults: *ranking.DefaultWeights(),
	}
}

// NewInMemoryConfigStoreWithWeights creates a configuration store whose
// first-use configurations start from the given calibrated weights.
func NewInMemoryConfigStoreWithWeights(defaults ranking.Weights) *InMemoryConfigStore {
	return &InMemoryConfigStore{
		configs:  make(map[string]*Configuration),
		defaults: defaults,
	}
}

// Get returns the user's configuration, creating the default on first use.
func (s *InMemoryConfigStore) Get(ctx context.Context, userID string) (*Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.configs[userID]
	if !ok {
		cfg = DefaultConfiguration(userID)
		cfg.Weights = s.defaults
		s.configs[userID] = cfg
	}

	cp := copyConfiguration(cfg)
	return cp, nil
}

// Update replaces the user's configuration.
func (s *InMemoryConfigStore) Update(ctx context.Context, cfg *Configuration) error {
	if _, err := ParseAlgorithm(string(cfg.Algorithm)); err != nil {
		return err
	}
	if err := cfg.Weights.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[cfg.UserID] = copyConfiguration(cfg)
	return nil
}

// copyConfiguration deep-copies a configuration including its slices.
func copyConfiguration(cfg *Configuration) *Configuration {
	cp := *cfg
	cp.PreferredCategories = append([]string(nil), cfg.PreferredCategories...)
	cp.ExcludedCategories = append([]string(nil), cfg.ExcludedCategories...)
	cp.BlockedSources = append([]string(nil), cfg.BlockedSources...)
	cp.BlockedUsers = append([]string(nil), cfg.BlockedUsers...)
	return &cp
}
