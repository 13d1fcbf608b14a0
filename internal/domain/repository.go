package domain

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByIDForUpdate retrieves a user by ID with a row lock, for use
	// inside a transaction scope
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByAccountNumber retrieves a user by account number
	GetByAccountNumber(ctx context.Context, accountNumber string) (*User, error)

	// GetByAccountNumberForUpdate retrieves a user by account number with a
	// row lock, for use inside a transaction scope
	GetByAccountNumberForUpdate(ctx context.Context, accountNumber string) (*User, error)

	// UpdateBalanceProfit writes a user's balance and cumulative profit
	UpdateBalanceProfit(ctx context.Context, userID uuid.UUID, balance, profit float64) error

	// UpdateStatus sets a user's account status
	UpdateStatus(ctx context.Context, userID uuid.UUID, status string) error

	// Delete removes a user
	Delete(ctx context.Context, userID uuid.UUID) error

	// GetAll retrieves all users
	GetAll(ctx context.Context) ([]*User, error)

	// GetByStatus retrieves users with the given account status
	GetByStatus(ctx context.Context, status string) ([]*User, error)

	// Aggregates returns per-status counts and balance/profit totals
	Aggregates(ctx context.Context) (*UserAggregates, error)
}

// TradeRepository defines the interface for trade data operations
type TradeRepository interface {
	// Save creates a new trade
	Save(ctx context.Context, trade *Trade) error

	// GetByID retrieves a trade by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Trade, error)

	// GetByIDForUpdate retrieves a trade by ID with a row lock, for use
	// inside a transaction scope
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Trade, error)

	// Close writes a trade's terminal state
	Close(ctx context.Context, trade *Trade) error

	// GetActiveByUser retrieves a user's active trades
	GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]*Trade, error)

	// GetHistoryByUser retrieves a user's closed trades, newest first
	GetHistoryByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Trade, error)

	// HasActiveRobotTrade reports whether the user has an active robot trade
	HasActiveRobotTrade(ctx context.Context, userID uuid.UUID) (bool, error)

	// CountByStatus counts trades with the given status
	CountByStatus(ctx context.Context, status string) (int, error)
}

// TransactionRepository defines the interface for transaction data operations
type TransactionRepository interface {
	// Save creates a new transaction
	Save(ctx context.Context, tx *Transaction) error

	// GetByID retrieves a transaction by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// GetByIDForUpdate retrieves a transaction by ID with a row lock, for
	// use inside a transaction scope
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// MarkProcessed writes a transaction's terminal state
	MarkProcessed(ctx context.Context, tx *Transaction) error

	// GetByUser retrieves a user's transactions, newest first
	GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Transaction, error)

	// GetPending retrieves all pending transactions
	GetPending(ctx context.Context) ([]*Transaction, error)

	// GetByReference retrieves a transaction by external reference
	GetByReference(ctx context.Context, reference string) (*Transaction, error)

	// CountPending counts pending transactions
	CountPending(ctx context.Context) (int, error)
}

// UserAggregates holds totals used by the admin statistics endpoint.
type UserAggregates struct {
	Total        int
	Approved     int
	Pending      int
	TotalBalance float64
	TotalProfit  float64
}
