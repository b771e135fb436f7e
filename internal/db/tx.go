package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is the subset of sql.DB and sql.Tx the stores execute against.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txContextKey struct{}

// QuerierFrom returns the transaction carried by the context, or the
// fallback pool when no transaction is in flight. Stores call this so the
// same method works standalone and inside a TxRunner.
func QuerierFrom(ctx context.Context, fallback Querier) Querier {
	if tx, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return tx
	}
	return fallback
}

// TxRunner runs a function within a single transaction. The transaction
// travels in the context so every participating store write commits or
// rolls back together.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLTxRunner implements TxRunner over a Postgres connection pool.
type SQLTxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a transaction runner for the given pool.
func NewTxRunner(db *sql.DB) *SQLTxRunner {
	return &SQLTxRunner{db: db}
}

// InTx begins a transaction, runs fn with it in the context, and commits.
// Any error from fn rolls the whole transaction back.
func (r *SQLTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (after: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
