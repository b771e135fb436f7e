package article

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Catalog defines the interface for article catalog operations.
// The feed assembler consumes it as its candidate source.
type Catalog interface {
	// Create inserts a new article with a generated UUID.
	Create(ctx context.Context, a *Article) error

	// Upsert inserts a new article or updates an existing one keyed by
	// ExternalID. Articles without an ExternalID are always inserted.
	Upsert(ctx context.Context, a *Article) (*UpsertResult, error)

	// GetByID retrieves an article by its UUID, excluding soft-deleted articles.
	GetByID(ctx context.Context, id string) (*Article, error)

	// GetByExternalID retrieves an ingested article by its upstream identifier.
	GetByExternalID(ctx context.Context, externalID string) (*Article, error)

	// ListCandidates returns all non-deleted, non-moderated articles published
	// within [from, to]. Zero time bounds are open.
	ListCandidates(ctx context.Context, from, to time.Time) ([]*Article, error)

	// BumpCounter atomically increments one aggregate counter on an article.
	BumpCounter(ctx context.Context, id string, c Counter) error

	// SetLabels replaces the moderation labels on an article.
	SetLabels(ctx context.Context, id string, labels []string) error

	// Delete soft-deletes an article.
	Delete(ctx context.Context, id string) error
}

// InMemoryCatalog is an in-memory implementation of Catalog.
// Thread-safe via RWMutex.
type InMemoryCatalog struct {
	mu       sync.RWMutex
	articles map[string]*Article // UUID -> Article
	external map[string]string   // ExternalID -> UUID
}

// NewInMemoryCatalog creates a new in-memory article catalog.
func NewInMemoryCatalog() *InMemoryCatalog {
	return &InMemoryCatalog{
		articles: make(map[string]*Article),
		external: make(map[string]string),
	}
}

// Create inserts a new article with a generated UUID.
func (c *InMemoryCatalog) Create(ctx context.Context, a *Article) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	a.ID = uuid.New().String()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.PublishedAt.IsZero() {
		a.PublishedAt = now
	}

	cp := *a
	c.articles[a.ID] = &cp
	if a.ExternalID != "" {
		c.external[a.ExternalID] = a.ID
	}
	return nil
}

// Upsert inserts a new article or updates an existing one keyed by ExternalID.
func (c *InMemoryCatalog) Upsert(ctx context.Context, a *Article) (*UpsertResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if a.ExternalID != "" {
		if id, ok := c.external[a.ExternalID]; ok {
			existing := c.articles[id]
			existing.Title = a.Title
			existing.URL = a.URL
			existing.Category = a.Category
			existing.Source = a.Source
			existing.UpdatedAt = now
			return &UpsertResult{Inserted: false, ID: id}, nil
		}
	}

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.PublishedAt.IsZero() {
		a.PublishedAt = now
	}

	cp := *a
	c.articles[a.ID] = &cp
	if a.ExternalID != "" {
		c.external[a.ExternalID] = a.ID
	}
	return &UpsertResult{Inserted: true, ID: a.ID}, nil
}

// GetByID retrieves an article by its UUID, excluding soft-deleted articles.
func (c *InMemoryCatalog) GetByID(ctx context.Context, id string) (*Article, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	a, ok := c.articles[id]
	if !ok || a.DeletedAt != nil {
		return nil, ErrArticleNotFound
	}

	cp := *a
	return &cp, nil
}

// GetByExternalID retrieves an ingested article by its upstream identifier.
func (c *InMemoryCatalog) GetByExternalID(ctx context.Context, externalID string) (*Article, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.external[externalID]
	if !ok {
		return nil, ErrArticleNotFound
	}
	a, ok := c.articles[id]
	if !ok || a.DeletedAt != nil {
		return nil, ErrArticleNotFound
	}

	cp := *a
	return &cp, nil
}

// ListCandidates returns all non-deleted, non-moderated articles published
// within [from, to].
func (c *InMemoryCatalog) ListCandidates(ctx context.Context, from, to time.Time) ([]*Article, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*Article
	for _, a := range c.articles {
		if a.DeletedAt != nil || a.Moderated() {
			continue
		}
		if !from.IsZero() && a.PublishedAt.Before(from) {
			continue
		}
		if !to.IsZero() && a.PublishedAt.After(to) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

// BumpCounter atomically increments one aggregate counter on an article.
func (c *InMemoryCatalog) BumpCounter(ctx context.Context, id string, counter Counter) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.articles[id]
	if !ok || a.DeletedAt != nil {
		return ErrArticleNotFound
	}

	switch counter {
	case CounterViews:
		a.Metrics.Views++
	case CounterLikes:
		a.Metrics.Likes++
	case CounterShares:
		a.Metrics.Shares++
	case CounterComments:
		a.Metrics.Comments++
	}
	a.UpdatedAt = time.Now()
	return nil
}

// SetLabels replaces the moderation labels on an article.
func (c *InMemoryCatalog) SetLabels(ctx context.Context, id string, labels []string) error {
	if err := ValidateLabels(labels); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.articles[id]
	if !ok || a.DeletedAt != nil {
		return ErrArticleNotFound
	}

	a.Labels = append([]string(nil), labels...)
	a.UpdatedAt = time.Now()
	return nil
}

// Delete soft-deletes an article by setting its deleted_at timestamp.
func (c *InMemoryCatalog) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.articles[id]
	if !ok {
		return ErrArticleNotFound
	}
	if a.DeletedAt != nil {
		return ErrArticleNotFound
	}

	now := time.Now()
	a.DeletedAt = &now
	return nil
}
