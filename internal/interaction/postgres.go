package interaction

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

// PostgresStore implements Store using PostgreSQL.
// The interactions table is append-only; no UPDATE or DELETE is ever issued.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres-backed interaction store.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// Append records a new interaction.
func (s *PostgresStore) Append(ctx context.Context, i *Interaction) error {
	if err := i.Validate(); err != nil {
		return err
	}

	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}

	query := `
		INSERT INTO interactions (id, user_id, article_id, type, ts, reading_progress, time_spent_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := db.QuerierFrom(ctx, s.db).ExecContext(ctx, query,
		i.ID, i.UserID, i.ArticleID, string(i.Type), i.Timestamp,
		i.ReadingProgress, i.TimeSpentSeconds)
	if err != nil {
		return fmt.Errorf("failed to append interaction: %w", err)
	}
	return nil
}

// ListByUser returns a user's interactions since the given time, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string, since time.Time) ([]*Interaction, error) {
	query := `
		SELECT id, user_id, article_id, type, ts, reading_progress, time_spent_seconds
		FROM interactions
		WHERE user_id = $1 AND ($2::timestamptz IS NULL OR ts >= $2)
		ORDER BY ts DESC
	`
	var sinceArg any
	if !since.IsZero() {
		sinceArg = since
	}

	rows, err := s.db.QueryContext(ctx, query, userID, sinceArg)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warn("failed to close rows", "error", err)
		}
	}()

	var out []*Interaction
	for rows.Next() {
		var i Interaction
		var typ string
		var progress, spent sql.NullFloat64
		if err := rows.Scan(&i.ID, &i.UserID, &i.ArticleID, &typ, &i.Timestamp, &progress, &spent); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		i.Type = Type(typ)
		if progress.Valid {
			p := progress.Float64
			i.ReadingProgress = &p
		}
		if spent.Valid {
			v := spent.Float64
			i.TimeSpentSeconds = &v
		}
		out = append(out, &i)
	}
	return out, rows.Err()
}

// CountSince returns interaction counts per article since the given time,
// restricted to the given types (all types when none are given).
func (s *PostgresStore) CountSince(ctx context.Context, since time.Time, types ...Type) (map[string]int64, error) {
	typeStrings := make([]string, len(types))
	for i, t := range types {
		typeStrings[i] = string(t)
	}

	query := `
		SELECT article_id, COUNT(*)
		FROM interactions
		WHERE ts >= $1 AND (cardinality($2::text[]) = 0 OR type = ANY($2))
		GROUP BY article_id
	`
	rows, err := s.db.QueryContext(ctx, query, since, pq.Array(typeStrings))
	if err != nil {
		return nil, fmt.Errorf("failed to count interactions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warn("failed to close rows", "error", err)
		}
	}()

	counts := make(map[string]int64)
	for rows.Next() {
		var id string
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
