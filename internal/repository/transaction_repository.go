package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pilgrimtrader/internal/domain"
)

const transactionColumns = `id, user_id, kind, amount, method, details, status, to_account,
	       reference, failure_reason, signature, processing_signature,
	       created_at, processed_at`

// TransactionRepositoryImpl implements the TransactionRepository interface
type TransactionRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db *pgxpool.Pool) domain.TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

func (r *TransactionRepositoryImpl) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Save creates a new transaction
func (r *TransactionRepositoryImpl) Save(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, user_id, kind, amount, method, details, status, to_account,
			reference, signature, created_at, processed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := r.q(ctx).Exec(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Kind,
		tx.Amount,
		tx.Method,
		tx.Details,
		tx.Status,
		tx.ToAccount,
		tx.Reference,
		tx.Signature,
		tx.CreatedAt,
		tx.ProcessedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	return nil
}

func (r *TransactionRepositoryImpl) getOne(ctx context.Context, where string, arg any, forUpdate bool) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s = $1`, transactionColumns, where)
	if forUpdate {
		query += " FOR UPDATE"
	}

	tx, err := scanTransaction(r.q(ctx).QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by %s: %w", where, err)
	}

	return tx, nil
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return r.getOne(ctx, "id", id, false)
}

// GetByIDForUpdate retrieves a transaction by ID with a row lock
func (r *TransactionRepositoryImpl) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return r.getOne(ctx, "id", id, true)
}

// GetByReference retrieves a transaction by external reference
func (r *TransactionRepositoryImpl) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	return r.getOne(ctx, "reference", reference, false)
}

// MarkProcessed writes a transaction's terminal state
func (r *TransactionRepositoryImpl) MarkProcessed(ctx context.Context, tx *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $1, failure_reason = $2, processing_signature = $3, processed_at = $4
		WHERE id = $5
	`

	tag, err := r.q(ctx).Exec(ctx, query,
		tx.Status,
		tx.FailureReason,
		tx.ProcessingSignature,
		tx.ProcessedAt,
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark transaction processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// GetByUser retrieves a user's transactions, newest first
func (r *TransactionRepositoryImpl) GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, transactionColumns)
	return r.queryMany(ctx, query, userID, limit)
}

// GetPending retrieves all pending transactions
func (r *TransactionRepositoryImpl) GetPending(ctx context.Context) ([]*domain.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE status = 'pending'
		ORDER BY created_at ASC
	`, transactionColumns)
	return r.queryMany(ctx, query)
}

// CountPending counts pending transactions
func (r *TransactionRepositoryImpl) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE status = 'pending'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending transactions: %w", err)
	}
	return count, nil
}

func (r *TransactionRepositoryImpl) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	tx := &domain.Transaction{}
	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Kind,
		&tx.Amount,
		&tx.Method,
		&tx.Details,
		&tx.Status,
		&tx.ToAccount,
		&tx.Reference,
		&tx.FailureReason,
		&tx.Signature,
		&tx.ProcessingSignature,
		&tx.CreatedAt,
		&tx.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
