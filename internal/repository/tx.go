package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pilgrimtrader/internal/domain"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
// Repositories run against the transaction carried in the context when one
// is open, and against the pool otherwise.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

func txFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// PgxTxManager implements domain.TxManager on a pgx connection pool.
type PgxTxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a new PgxTxManager
func NewTxManager(pool *pgxpool.Pool) domain.TxManager {
	return &PgxTxManager{pool: pool}
}

// WithinTx runs fn inside a database transaction. A nested call reuses the
// already-open transaction so multi-step ledger operations compose.
func (m *PgxTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
