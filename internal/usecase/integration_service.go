package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"pilgrimtrader/internal/domain"
	"pilgrimtrader/internal/signing"
)

// IntegrationService links a user's wallet to the external trading platform.
// The ledger assumes nothing about the platform beyond the TradingPlatform
// contract; every remote failure is reported back, never fatal.
type IntegrationService struct {
	platform domain.TradingPlatform
	ledger   *LedgerService
	txRepo   domain.TransactionRepository
	signer   *signing.Signer

	mu     sync.Mutex
	handle *domain.ConnectionHandle
	userID uuid.UUID
}

// NewIntegrationService creates a new IntegrationService
func NewIntegrationService(
	platform domain.TradingPlatform,
	ledger *LedgerService,
	txRepo domain.TransactionRepository,
	signer *signing.Signer,
) *IntegrationService {
	return &IntegrationService{
		platform: platform,
		ledger:   ledger,
		txRepo:   txRepo,
		signer:   signer,
	}
}

// Connect establishes a platform session bound to the given user's wallet.
func (s *IntegrationService) Connect(ctx context.Context, userID uuid.UUID, url, apiKey string) (*domain.ConnectionHandle, error) {
	handle, err := s.platform.Connect(ctx, url, apiKey)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}

	s.mu.Lock()
	s.handle = handle
	s.userID = userID
	s.mu.Unlock()

	log.Printf("[OK] Connected to trading platform, terminal %s", handle.TerminalID)
	return handle, nil
}

// Disconnect drops the platform session.
func (s *IntegrationService) Disconnect() {
	s.mu.Lock()
	s.handle = nil
	s.userID = uuid.Nil
	s.mu.Unlock()
	log.Println("[OK] Disconnected from trading platform")
}

// Status reports the current session, if any.
func (s *IntegrationService) Status() (*domain.ConnectionHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle, s.handle != nil
}

func (s *IntegrationService) session() (*domain.ConnectionHandle, uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return nil, uuid.Nil, domain.ErrNotConnected
	}
	return s.handle, s.userID, nil
}

// WithdrawFromPlatform pulls funds off the platform and credits the linked
// wallet with a completed deposit transaction carrying the remote reference.
func (s *IntegrationService) WithdrawFromPlatform(ctx context.Context, amount float64, currency string) (*domain.Transaction, error) {
	handle, userID, err := s.session()
	if err != nil {
		return nil, err
	}

	ref, err := s.platform.Withdraw(ctx, handle, amount, currency)
	if err != nil {
		return nil, fmt.Errorf("platform withdrawal failed: %w", err)
	}

	return s.ledger.RecordExternal(ctx, userID, domain.KindDeposit, amount, "trading-platform", ref.ID)
}

// DepositToPlatform pushes wallet funds onto the platform, debiting the
// linked wallet with a completed withdrawal transaction.
func (s *IntegrationService) DepositToPlatform(ctx context.Context, amount float64, currency string) (*domain.Transaction, error) {
	handle, userID, err := s.session()
	if err != nil {
		return nil, err
	}

	ref, err := s.platform.Deposit(ctx, handle, amount, currency)
	if err != nil {
		return nil, fmt.Errorf("platform deposit failed: %w", err)
	}

	return s.ledger.RecordExternal(ctx, userID, domain.KindWithdrawal, amount, "trading-platform", ref.ID)
}

// PlatformBalance fetches the platform-side balance.
func (s *IntegrationService) PlatformBalance(ctx context.Context) (float64, error) {
	handle, _, err := s.session()
	if err != nil {
		return 0, err
	}
	return s.platform.GetBalance(ctx, handle)
}

// SyncTransactions mirrors the platform's transaction feed into the linked
// wallet's history. Entries are record-only (no balance movement, that
// happened at withdraw/deposit time) and deduplicated by remote reference.
func (s *IntegrationService) SyncTransactions(ctx context.Context) error {
	handle, userID, err := s.session()
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			return nil
		}
		return err
	}

	remote, err := s.platform.ListTransactions(ctx, handle)
	if err != nil {
		return fmt.Errorf("failed to list platform transactions: %w", err)
	}

	for _, rtx := range remote {
		if _, err := s.txRepo.GetByReference(ctx, rtx.ID); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		kind := domain.KindDeposit
		if rtx.Kind == "withdrawal" {
			kind = domain.KindWithdrawal
		}

		sig, err := s.signer.Sign(map[string]any{
			"user_id":   userID,
			"kind":      kind,
			"amount":    rtx.Amount,
			"reference": rtx.ID,
		})
		if err != nil {
			return err
		}

		ref := rtx.ID
		now := time.Now()
		mirror := &domain.Transaction{
			ID:          uuid.New(),
			UserID:      userID,
			Kind:        kind,
			Amount:      rtx.Amount,
			Method:      "platform-sync",
			Status:      domain.TxStatusCompleted,
			Reference:   &ref,
			Signature:   sig,
			CreatedAt:   now,
			ProcessedAt: &now,
		}
		if err := s.txRepo.Save(ctx, mirror); err != nil {
			return err
		}
	}

	return nil
}
