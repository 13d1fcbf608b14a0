package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction represents a money movement on a user's wallet
type Transaction struct {
	ID                  uuid.UUID        `json:"id"`
	UserID              uuid.UUID        `json:"user_id"`
	Kind                string           `json:"kind"`
	Amount              float64          `json:"amount"`
	Method              string           `json:"method"`
	Details             *string          `json:"details,omitempty"`
	Status              string           `json:"status"`
	ToAccount           *string          `json:"to_account,omitempty"`
	Reference           *string          `json:"reference,omitempty"`
	FailureReason       *string          `json:"failure_reason,omitempty"`
	Signature           *SignatureRecord `json:"signature,omitempty"`
	ProcessingSignature *SignatureRecord `json:"processing_signature,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	ProcessedAt         *time.Time       `json:"processed_at,omitempty"`
}

// TransactionKind constants
const (
	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
	KindTransfer   = "transfer"
)

// TransactionStatus constants
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// IsPending reports whether the transaction may still be processed.
func (t *Transaction) IsPending() bool {
	return t.Status == TxStatusPending
}
