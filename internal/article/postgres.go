package article

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/newsreel/newsreel/internal/db"
)

// PostgresCatalog implements Catalog using PostgreSQL.
// Counter bumps are single atomic UPDATE statements so concurrent
// interactions never lose increments.
type PostgresCatalog struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCatalog creates a new Postgres-backed article catalog.
func NewPostgresCatalog(db *sql.DB, logger *slog.Logger) *PostgresCatalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCatalog{db: db, logger: logger}
}

const articleColumns = `id, title, url, category, source, author_id, labels,
	views, likes, shares, comments, published_at, external_id,
	created_at, updated_at, deleted_at`

// Create inserts a new article with a generated UUID.
func (c *PostgresCatalog) Create(ctx context.Context, a *Article) error {
	now := time.Now()
	a.ID = uuid.New().String()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.PublishedAt.IsZero() {
		a.PublishedAt = now
	}

	query := `
		INSERT INTO articles (id, title, url, category, source, author_id, labels,
			views, likes, shares, comments, published_at, external_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''), $14, $15)
	`
	_, err := c.db.ExecContext(ctx, query,
		a.ID, a.Title, a.URL, a.Category, a.Source, a.AuthorID, pq.Array(a.Labels),
		a.Metrics.Views, a.Metrics.Likes, a.Metrics.Shares, a.Metrics.Comments,
		a.PublishedAt, a.ExternalID, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}
	return nil
}

// Upsert inserts a new article or updates an existing one keyed by ExternalID.
func (c *PostgresCatalog) Upsert(ctx context.Context, a *Article) (*UpsertResult, error) {
	if a.ExternalID == "" {
		if err := c.Create(ctx, a); err != nil {
			return nil, err
		}
		return &UpsertResult{Inserted: true, ID: a.ID}, nil
	}

	now := time.Now()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.PublishedAt.IsZero() {
		a.PublishedAt = now
	}

	// xmax = 0 only for freshly inserted rows, which distinguishes
	// insert from update in a single round trip.
	query := `
		INSERT INTO articles (id, title, url, category, source, author_id, labels,
			views, likes, shares, comments, published_at, external_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, 0, 0, $8, $9, $10, $10)
		ON CONFLICT (external_id) DO UPDATE SET
			title = EXCLUDED.title,
			url = EXCLUDED.url,
			category = EXCLUDED.category,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0) AS inserted
	`
	var result UpsertResult
	err := c.db.QueryRowContext(ctx, query,
		a.ID, a.Title, a.URL, a.Category, a.Source, a.AuthorID, pq.Array(a.Labels),
		a.PublishedAt, a.ExternalID, now).Scan(&result.ID, &result.Inserted)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert article: %w", err)
	}
	return &result, nil
}

// GetByID retrieves an article by its UUID, excluding soft-deleted articles.
func (c *PostgresCatalog) GetByID(ctx context.Context, id string) (*Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1 AND deleted_at IS NULL`
	a, err := scanArticle(c.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return a, nil
}

// GetByExternalID retrieves an ingested article by its upstream identifier.
func (c *PostgresCatalog) GetByExternalID(ctx context.Context, externalID string) (*Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE external_id = $1 AND deleted_at IS NULL`
	a, err := scanArticle(c.db.QueryRowContext(ctx, query, externalID))
	if err == sql.ErrNoRows {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return a, nil
}

// ListCandidates returns all non-deleted, non-moderated articles published
// within [from, to].
func (c *PostgresCatalog) ListCandidates(ctx context.Context, from, to time.Time) ([]*Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles
		WHERE deleted_at IS NULL
		  AND NOT (labels && $1)
		  AND ($2::timestamptz IS NULL OR published_at >= $2)
		  AND ($3::timestamptz IS NULL OR published_at <= $3)
		ORDER BY published_at DESC
	`
	rows, err := c.db.QueryContext(ctx, query,
		pq.Array(AllowedLabels), nullTime(from), nullTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			c.logger.Warn("failed to close rows", "error", err)
		}
	}()

	var out []*Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// BumpCounter atomically increments one aggregate counter on an article.
func (c *PostgresCatalog) BumpCounter(ctx context.Context, id string, counter Counter) error {
	var column string
	switch counter {
	case CounterViews:
		column = "views"
	case CounterLikes:
		column = "likes"
	case CounterShares:
		column = "shares"
	case CounterComments:
		column = "comments"
	default:
		return fmt.Errorf("unknown counter: %s", counter)
	}

	query := fmt.Sprintf(`
		UPDATE articles SET %s = %s + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, column, column)
	res, err := db.QuerierFrom(ctx, c.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to bump counter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrArticleNotFound
	}
	return nil
}

// SetLabels replaces the moderation labels on an article.
func (c *PostgresCatalog) SetLabels(ctx context.Context, id string, labels []string) error {
	if err := ValidateLabels(labels); err != nil {
		return err
	}

	query := `UPDATE articles SET labels = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	res, err := c.db.ExecContext(ctx, query, id, pq.Array(labels))
	if err != nil {
		return fmt.Errorf("failed to set labels: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrArticleNotFound
	}
	return nil
}

// Delete soft-deletes an article.
func (c *PostgresCatalog) Delete(ctx context.Context, id string) error {
	query := `UPDATE articles SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	res, err := c.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrArticleNotFound
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanArticle.
type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(s scanner) (*Article, error) {
	var a Article
	var url, externalID sql.NullString
	var deletedAt sql.NullTime
	err := s.Scan(&a.ID, &a.Title, &url, &a.Category, &a.Source, &a.AuthorID,
		pq.Array(&a.Labels),
		&a.Metrics.Views, &a.Metrics.Likes, &a.Metrics.Shares, &a.Metrics.Comments,
		&a.PublishedAt, &externalID, &a.CreatedAt, &a.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	a.URL = url.String
	a.ExternalID = externalID.String
	if deletedAt.Valid {
		a.DeletedAt = &deletedAt.Time
	}
	return &a, nil
}

// nullTime converts a zero time to a SQL NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
