package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pilgrimtrader/internal/domain"
)

const userColumns = `id, account_number, serial_number, name, email, phone,
	       password_hash, role, balance, profit, status, created_at, updated_at`

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Create creates a new user
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			id, account_number, serial_number, name, email, phone,
			password_hash, role, balance, profit, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	_, err := r.q(ctx).Exec(ctx, query,
		user.ID,
		user.AccountNumber,
		user.SerialNumber,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.Balance,
		user.Profit,
		user.Status,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "users_email_key" {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepositoryImpl) getOne(ctx context.Context, where string, arg any, forUpdate bool) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, where)
	if forUpdate {
		query += " FOR UPDATE"
	}

	user := &domain.User{}
	err := r.q(ctx).QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.AccountNumber,
		&user.SerialNumber,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.Balance,
		&user.Profit,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", where, err)
	}

	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, "id", id, false)
}

// GetByIDForUpdate retrieves a user by ID with a row lock
func (r *UserRepositoryImpl) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, "id", id, true)
}

// GetByEmail retrieves a user by email
func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email", email, false)
}

// GetByAccountNumber retrieves a user by account number
func (r *UserRepositoryImpl) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error) {
	return r.getOne(ctx, "account_number", accountNumber, false)
}

// GetByAccountNumberForUpdate retrieves a user by account number with a row lock
func (r *UserRepositoryImpl) GetByAccountNumberForUpdate(ctx context.Context, accountNumber string) (*domain.User, error) {
	return r.getOne(ctx, "account_number", accountNumber, true)
}

// UpdateBalanceProfit writes a user's balance and cumulative profit
func (r *UserRepositoryImpl) UpdateBalanceProfit(ctx context.Context, userID uuid.UUID, balance, profit float64) error {
	query := `
		UPDATE users
		SET balance = $1, profit = $2, updated_at = NOW()
		WHERE id = $3
	`

	tag, err := r.q(ctx).Exec(ctx, query, balance, profit, userID)
	if err != nil {
		return fmt.Errorf("failed to update user balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// UpdateStatus sets a user's account status
func (r *UserRepositoryImpl) UpdateStatus(ctx context.Context, userID uuid.UUID, status string) error {
	query := `
		UPDATE users
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	tag, err := r.q(ctx).Exec(ctx, query, status, userID)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete removes a user. Trades and transactions cascade via foreign keys.
func (r *UserRepositoryImpl) Delete(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetAll retrieves all users
func (r *UserRepositoryImpl) GetAll(ctx context.Context) ([]*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY created_at ASC`, userColumns)
	return r.queryMany(ctx, query)
}

// GetByStatus retrieves users with the given account status
func (r *UserRepositoryImpl) GetByStatus(ctx context.Context, status string) ([]*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE status = $1 ORDER BY created_at ASC`, userColumns)
	return r.queryMany(ctx, query, status)
}

func (r *UserRepositoryImpl) queryMany(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		err := rows.Scan(
			&user.ID,
			&user.AccountNumber,
			&user.SerialNumber,
			&user.Name,
			&user.Email,
			&user.Phone,
			&user.PasswordHash,
			&user.Role,
			&user.Balance,
			&user.Profit,
			&user.Status,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Aggregates returns per-status counts and balance/profit totals
func (r *UserRepositoryImpl) Aggregates(ctx context.Context) (*domain.UserAggregates, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'approved'),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COALESCE(SUM(balance), 0),
		       COALESCE(SUM(profit), 0)
		FROM users
	`

	agg := &domain.UserAggregates{}
	err := r.q(ctx).QueryRow(ctx, query).Scan(
		&agg.Total,
		&agg.Approved,
		&agg.Pending,
		&agg.TotalBalance,
		&agg.TotalProfit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate users: %w", err)
	}

	return agg, nil
}
