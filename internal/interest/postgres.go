package interest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/newsreel/newsreel/internal/db"
)

// PostgresStore implements Store using PostgreSQL.
// Apply is a single UPSERT whose clamp happens inside the statement, so the
// read-modify-write is atomic at the row level under concurrent writers.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres-backed interest store.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// Apply atomically adjusts one interest row, clamping the score to [0, 1].
func (s *PostgresStore) Apply(ctx context.Context, userID string, dim Dimension, label string, delta float64) error {
	if label == "" {
		return ErrMissingLabel
	}

	query := `
		INSERT INTO user_interests (user_id, dimension, label, score, interaction_count, last_updated)
		VALUES ($1, $2, $3, LEAST(1.0, GREATEST(0.0, $4)), 1, NOW())
		ON CONFLICT (user_id, dimension, label) DO UPDATE SET
			score = LEAST(1.0, GREATEST(0.0, user_interests.score + $4)),
			interaction_count = user_interests.interaction_count + 1,
			last_updated = NOW()
	`
	_, err := db.QuerierFrom(ctx, s.db).ExecContext(ctx, query, userID, string(dim), label, delta)
	if err != nil {
		return fmt.Errorf("failed to apply interest delta: %w", err)
	}
	return nil
}

// GetProfile returns all interest rows for a user.
func (s *PostgresStore) GetProfile(ctx context.Context, userID string) ([]*UserInterest, error) {
	query := `
		SELECT user_id, dimension, label, score, interaction_count, last_updated
		FROM user_interests
		WHERE user_id = $1
		ORDER BY score DESC, label ASC
	`
	return s.queryRows(ctx, query, userID)
}

// TopByDimension returns a user's top interest rows for one dimension.
func (s *PostgresStore) TopByDimension(ctx context.Context, userID string, dim Dimension, limit int) ([]*UserInterest, error) {
	query := `
		SELECT user_id, dimension, label, score, interaction_count, last_updated
		FROM user_interests
		WHERE user_id = $1 AND dimension = $2
		ORDER BY score DESC, label ASC
		LIMIT $3
	`
	if limit <= 0 {
		limit = 100
	}
	return s.queryRows(ctx, query, userID, string(dim), limit)
}

func (s *PostgresStore) queryRows(ctx context.Context, query string, args ...any) ([]*UserInterest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interests: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warn("failed to close rows", "error", err)
		}
	}()

	var out []*UserInterest
	for rows.Next() {
		var u UserInterest
		var dim string
		if err := rows.Scan(&u.UserID, &dim, &u.Label, &u.Score, &u.InteractionCount, &u.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan interest: %w", err)
		}
		u.Dimension = Dimension(dim)
		out = append(out, &u)
	}
	return out, rows.Err()
}
