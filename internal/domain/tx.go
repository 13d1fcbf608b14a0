package domain

import "context"

// TxManager runs a function within one transactional scope. Every
// multi-record ledger mutation goes through it so that either all writes
// become visible or none do.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
