package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pilgrimtrader/internal/domain"
	"pilgrimtrader/internal/signing"
)

// BalanceDirection values accepted by UpdateBalance.
const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// LedgerService owns user balance/profit state and the transaction
// lifecycle. Every mutation runs inside a TxManager scope so multi-record
// updates are atomic and a failure leaves no partial state behind.
type LedgerService struct {
	userRepo domain.UserRepository
	txRepo   domain.TransactionRepository
	txm      domain.TxManager
	signer   *signing.Signer
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	userRepo domain.UserRepository,
	txRepo domain.TransactionRepository,
	txm domain.TxManager,
	signer *signing.Signer,
) *LedgerService {
	return &LedgerService{
		userRepo: userRepo,
		txRepo:   txRepo,
		txm:      txm,
		signer:   signer,
	}
}

// CreateUser registers a new user with a fresh account number and serial
// number, zero balance and profit, and pending status.
func (s *LedgerService) CreateUser(ctx context.Context, name, email, phone, passwordHash string) (*domain.User, error) {
	var user *domain.User
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
			return domain.ErrDuplicateEmail
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		accountNumber, err := s.generateAccountNumber(ctx)
		if err != nil {
			return err
		}

		now := time.Now()
		user = &domain.User{
			ID:            uuid.New(),
			AccountNumber: accountNumber,
			SerialNumber:  generateSerialNumber(),
			Name:          name,
			Email:         email,
			Phone:         phone,
			PasswordHash:  passwordHash,
			Role:          domain.RoleUser,
			Balance:       0,
			Profit:        0,
			Status:        domain.UserStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		return s.userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// SeedAdmin creates the administrator account at first startup. Re-running
// against an existing admin is a no-op.
func (s *LedgerService) SeedAdmin(ctx context.Context, name, email, phone, passwordHash string, openingBalance float64) (*domain.User, error) {
	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var admin *domain.User
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		accountNumber, err := s.generateAccountNumber(ctx)
		if err != nil {
			return err
		}

		now := time.Now()
		admin = &domain.User{
			ID:            uuid.New(),
			AccountNumber: accountNumber,
			SerialNumber:  generateSerialNumber(),
			Name:          name,
			Email:         email,
			Phone:         phone,
			PasswordHash:  passwordHash,
			Role:          domain.RoleAdmin,
			Balance:       openingBalance,
			Status:        domain.UserStatusApproved,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return s.userRepo.Create(ctx, admin)
	})
	if err != nil {
		return nil, err
	}

	return admin, nil
}

// ApproveUser sets the user's status to approved. Approving an
// already-approved user is a no-op.
func (s *LedgerService) ApproveUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.setStatus(ctx, userID, domain.UserStatusApproved)
}

// RejectUser sets the user's status to rejected.
func (s *LedgerService) RejectUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.setStatus(ctx, userID, domain.UserStatusRejected)
}

func (s *LedgerService) setStatus(ctx context.Context, userID uuid.UUID, status string) (*domain.User, error) {
	var user *domain.User
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.userRepo.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user.Status == status {
			return nil
		}
		if err := s.userRepo.UpdateStatus(ctx, userID, status); err != nil {
			return err
		}
		user.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user. Trades and transactions referencing the user
// are removed by the storage layer's cascade rules.
func (s *LedgerService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return s.userRepo.Delete(ctx, userID)
}

// UpdateBalance credits or debits a user's balance. A debit that would drive
// the balance below zero fails with ErrInsufficientFunds and changes nothing.
func (s *LedgerService) UpdateBalance(ctx context.Context, userID uuid.UUID, amount float64, direction string) (*domain.User, error) {
	if amount < 0 {
		return nil, domain.ErrInvalidAmount
	}
	if direction != DirectionCredit && direction != DirectionDebit {
		return nil, fmt.Errorf("unknown balance direction %q", direction)
	}

	var user *domain.User
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.userRepo.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		newBalance := user.Balance + amount
		if direction == DirectionDebit {
			newBalance = user.Balance - amount
		}
		if newBalance < 0 {
			return domain.ErrInsufficientFunds
		}

		if err := s.userRepo.UpdateBalanceProfit(ctx, userID, newBalance, user.Profit); err != nil {
			return err
		}
		user.Balance = newBalance
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateProfit adds the signed amount to the user's cumulative profit.
func (s *LedgerService) UpdateProfit(ctx context.Context, userID uuid.UUID, amount float64) (*domain.User, error) {
	var user *domain.User
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.userRepo.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		newProfit := user.Profit + amount
		if err := s.userRepo.UpdateBalanceProfit(ctx, userID, user.Balance, newProfit); err != nil {
			return err
		}
		user.Profit = newProfit
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// CreateTransaction records a pending transaction stamped with a creation
// signature over the full payload.
func (s *LedgerService) CreateTransaction(ctx context.Context, userID uuid.UUID, kind string, amount float64, method string, details *string) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	sig, err := s.signer.Sign(map[string]any{
		"user_id": userID,
		"kind":    kind,
		"amount":  amount,
		"method":  method,
		"details": details,
	})
	if err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Amount:    amount,
		Method:    method,
		Details:   details,
		Status:    domain.TxStatusPending,
		Signature: sig,
		CreatedAt: time.Now(),
	}
	if err := s.txRepo.Save(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// ProcessTransaction settles a pending transaction, at most once. Deposits
// credit the balance. Withdrawals debit it when covered; an uncovered
// withdrawal is marked failed with a recorded reason, the balance stays
// untouched, and ErrInsufficientFunds is returned. Terminal outcomes are
// stamped with a processing signature.
func (s *LedgerService) ProcessTransaction(ctx context.Context, transactionID uuid.UUID) error {
	var outcome error
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		tx, err := s.txRepo.GetByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if !tx.IsPending() {
			return domain.ErrTransactionProcessed
		}

		user, err := s.userRepo.GetByIDForUpdate(ctx, tx.UserID)
		if err != nil {
			return err
		}

		now := time.Now()
		tx.ProcessedAt = &now

		switch tx.Kind {
		case domain.KindDeposit:
			tx.Status = domain.TxStatusCompleted
			if err := s.userRepo.UpdateBalanceProfit(ctx, user.ID, user.Balance+tx.Amount, user.Profit); err != nil {
				return err
			}
		default: // withdrawal and anything withdrawal-like debits
			if user.Balance < tx.Amount {
				tx.Status = domain.TxStatusFailed
				reason := "insufficient balance"
				tx.FailureReason = &reason
				// The failed state must still be committed.
				outcome = domain.ErrInsufficientFunds
			} else {
				tx.Status = domain.TxStatusCompleted
				if err := s.userRepo.UpdateBalanceProfit(ctx, user.ID, user.Balance-tx.Amount, user.Profit); err != nil {
					return err
				}
			}
		}

		tx.ProcessingSignature, err = s.signer.Sign(map[string]any{
			"transaction_id": tx.ID,
			"status":         tx.Status,
			"processed_at":   now.UnixMilli(),
		})
		if err != nil {
			return err
		}

		return s.txRepo.MarkProcessed(ctx, tx)
	})
	if err != nil {
		return err
	}
	return outcome
}

// RecordExternal applies a platform-originated money movement: the balance
// change and the completed transaction carrying the remote reference commit
// together or not at all.
func (s *LedgerService) RecordExternal(ctx context.Context, userID uuid.UUID, kind string, amount float64, method, reference string) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	var record *domain.Transaction
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		newBalance := user.Balance + amount
		if kind == domain.KindWithdrawal {
			newBalance = user.Balance - amount
			if newBalance < 0 {
				return domain.ErrInsufficientFunds
			}
		}
		if err := s.userRepo.UpdateBalanceProfit(ctx, userID, newBalance, user.Profit); err != nil {
			return err
		}

		sig, err := s.signer.Sign(map[string]any{
			"user_id":   userID,
			"kind":      kind,
			"amount":    amount,
			"reference": reference,
		})
		if err != nil {
			return err
		}

		now := time.Now()
		record = &domain.Transaction{
			ID:          uuid.New(),
			UserID:      userID,
			Kind:        kind,
			Amount:      amount,
			Method:      method,
			Status:      domain.TxStatusCompleted,
			Reference:   &reference,
			Signature:   sig,
			CreatedAt:   now,
			ProcessedAt: &now,
		}
		return s.txRepo.Save(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// RequestWithdrawal validates the request and records a pending withdrawal
// transaction for later processing.
func (s *LedgerService) RequestWithdrawal(ctx context.Context, userID uuid.UUID, amount float64, method, details string) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsApproved() {
		return nil, domain.ErrNotApproved
	}
	if user.Balance < amount {
		return nil, domain.ErrInsufficientFunds
	}

	var det *string
	if details != "" {
		det = &details
	}
	return s.CreateTransaction(ctx, userID, domain.KindWithdrawal, amount, method, det)
}

// TransferFunds moves amount from one user to another, atomically. Row locks
// are taken in account-number order so two opposite-direction transfers
// cannot deadlock. One completed transfer transaction is recorded on the
// source side.
func (s *LedgerService) TransferFunds(ctx context.Context, fromUserID uuid.UUID, toAccountNumber string, amount float64) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	var record *domain.Transaction
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		source, err := s.userRepo.GetByID(ctx, fromUserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrInvalidAccount
			}
			return err
		}
		if source.AccountNumber == toAccountNumber {
			return domain.ErrInvalidAccount
		}

		// Lock both rows in account-number order.
		first, second := source.AccountNumber, toAccountNumber
		if strings.Compare(first, second) > 0 {
			first, second = second, first
		}
		users := make(map[string]*domain.User, 2)
		for _, acct := range []string{first, second} {
			u, err := s.userRepo.GetByAccountNumberForUpdate(ctx, acct)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.ErrInvalidAccount
				}
				return err
			}
			users[acct] = u
		}

		source = users[source.AccountNumber]
		dest := users[toAccountNumber]

		if source.Balance < amount {
			return domain.ErrInsufficientFunds
		}

		if err := s.userRepo.UpdateBalanceProfit(ctx, source.ID, source.Balance-amount, source.Profit); err != nil {
			return err
		}
		if err := s.userRepo.UpdateBalanceProfit(ctx, dest.ID, dest.Balance+amount, dest.Profit); err != nil {
			return err
		}

		sig, err := s.signer.Sign(map[string]any{
			"user_id":    fromUserID,
			"kind":       domain.KindTransfer,
			"amount":     amount,
			"to_account": toAccountNumber,
		})
		if err != nil {
			return err
		}

		now := time.Now()
		record = &domain.Transaction{
			ID:          uuid.New(),
			UserID:      fromUserID,
			Kind:        domain.KindTransfer,
			Amount:      amount,
			Method:      "internal",
			Status:      domain.TxStatusCompleted,
			ToAccount:   &toAccountNumber,
			Signature:   sig,
			CreatedAt:   now,
			ProcessedAt: &now,
		}
		return s.txRepo.Save(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// AuthenticateByEmail checks the password against the stored hash and
// returns a sanitized user view.
func (s *LedgerService) AuthenticateByEmail(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	return s.checkPassword(user, password)
}

// AuthenticateByAccountNumber checks the password against the stored hash
// and returns a sanitized user view.
func (s *LedgerService) AuthenticateByAccountNumber(ctx context.Context, accountNumber, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	return s.checkPassword(user, password)
}

func (s *LedgerService) checkPassword(user *domain.User, password string) (*domain.User, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user.Sanitized(), nil
}

// generateAccountNumber draws random 10-digit account numbers until one is
// free of collisions with the existing user set.
func (s *LedgerService) generateAccountNumber(ctx context.Context) (string, error) {
	for {
		candidate := strconv.FormatInt(1_000_000_000+rand.Int63n(9_000_000_000), 10)
		_, err := s.userRepo.GetByAccountNumber(ctx, candidate)
		if errors.Is(err, domain.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}

const serialCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateSerialNumber() string {
	b := make([]byte, 9)
	for i := range b {
		b[i] = serialCharset[rand.Intn(len(serialCharset))]
	}
	return "GPT-" + string(b)
}
