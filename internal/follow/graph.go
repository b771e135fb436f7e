// Package follow provides the user follow graph consumed by the
// following feed variant.
package follow

import (
	"context"
	"sync"
)

// Graph defines the follow graph interface.
type Graph interface {
	// Follow records that follower follows followee. Idempotent.
	Follow(ctx context.Context, followerID, followeeID string) error

	// Unfollow removes a follow edge. Removing a missing edge is a no-op.
	Unfollow(ctx context.Context, followerID, followeeID string) error

	// Following returns the set of user ids the given user follows.
	Following(ctx context.Context, followerID string) (map[string]bool, error)
}

// InMemoryGraph is an in-memory implementation of Graph.
// Thread-safe via RWMutex.
type InMemoryGraph struct {
	mu    sync.RWMutex
	edges map[string]map[string]bool // followerID -> followeeID set
}

// NewInMemoryGraph creates a new in-memory follow graph.
func NewInMemoryGraph() *InMemoryGraph {
	return &InMemoryGraph{edges: make(map[string]map[string]bool)}
}

// Follow records that follower follows followee.
func (g *InMemoryGraph) Follow(ctx context.Context, followerID, followeeID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	set, ok := g.edges[followerID]
	if !ok {
		set = make(map[string]bool)
		g.edges[followerID] = set
	}
	set[followeeID] = true
	return nil
}

// Unfollow removes a follow edge.
func (g *InMemoryGraph) Unfollow(ctx context.Context, followerID, followeeID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if set, ok := g.edges[followerID]; ok {
		delete(set, followeeID)
	}
	return nil
}

// Following returns a copy of the set of user ids the given user follows.
func (g *InMemoryGraph) Following(ctx context.Context, followerID string) (map[string]bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]bool)
	for id := range g.edges[followerID] {
		out[id] = true
	}
	return out, nil
}
