package domain

import (
	"context"
	"time"
)

// ConnectionHandle identifies an established trading platform session.
type ConnectionHandle struct {
	TerminalID string `json:"terminal_id"`
	URL        string `json:"url"`
	APIKey     string `json:"-"`
}

// TransactionRef is the platform's opaque identifier for a money movement.
type TransactionRef struct {
	ID string `json:"id"`
}

// RemoteTransaction is a transaction as reported by the trading platform.
type RemoteTransaction struct {
	ID        string    `json:"id"`
	Kind      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TradingPlatform is the external collaborator interface for the remote
// trading platform. The ledger assumes nothing about it beyond these
// contracts; failures carry a message and are never fatal.
type TradingPlatform interface {
	Connect(ctx context.Context, url, apiKey string) (*ConnectionHandle, error)
	Withdraw(ctx context.Context, handle *ConnectionHandle, amount float64, currency string) (*TransactionRef, error)
	Deposit(ctx context.Context, handle *ConnectionHandle, amount float64, currency string) (*TransactionRef, error)
	GetBalance(ctx context.Context, handle *ConnectionHandle) (float64, error)
	ListTransactions(ctx context.Context, handle *ConnectionHandle) ([]*RemoteTransaction, error)
}
