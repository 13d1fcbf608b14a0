package domain

import "errors"

// Standard ledger errors. Repositories and services wrap underlying
// infrastructure errors with these so callers can branch with errors.Is.
var (
	ErrNotFound             = errors.New("resource not found")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrInsufficientFunds    = errors.New("insufficient balance")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrNotApproved          = errors.New("account not approved")
	ErrInvalidAccount       = errors.New("invalid account")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrTradeAlreadyClosed   = errors.New("trade already closed")
	ErrTransactionProcessed = errors.New("transaction already processed")
	ErrRobotAlreadyActive   = errors.New("robot trading already active")
	ErrNotConnected         = errors.New("not connected to trading platform")
)
