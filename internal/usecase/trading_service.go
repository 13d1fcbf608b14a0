package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pilgrimtrader/internal/domain"
	"pilgrimtrader/internal/signing"
)

// TradingService owns the trade lifecycle. Closing a trade settles its
// realized profit into the owning user's profit and balance in the same
// transactional scope, so either both ledgers move or neither does.
type TradingService struct {
	tradeRepo domain.TradeRepository
	userRepo  domain.UserRepository
	txm       domain.TxManager
	signer    *signing.Signer
}

// NewTradingService creates a new TradingService
func NewTradingService(
	tradeRepo domain.TradeRepository,
	userRepo domain.UserRepository,
	txm domain.TxManager,
	signer *signing.Signer,
) *TradingService {
	return &TradingService{
		tradeRepo: tradeRepo,
		userRepo:  userRepo,
		txm:       txm,
		signer:    signer,
	}
}

// OpenTrade creates an active trade for the user at the given entry price.
func (s *TradingService) OpenTrade(ctx context.Context, userID uuid.UUID, symbol, direction string, lotSize, entryPrice float64, mode string) (*domain.Trade, error) {
	if lotSize <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	switch mode {
	case domain.TradeModeManual, domain.TradeModeAutomatic, domain.TradeModeRobot:
	default:
		return nil, fmt.Errorf("unknown trade mode %q", mode)
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	sig, err := s.signer.Sign(map[string]any{
		"user_id":   userID,
		"symbol":    symbol,
		"direction": direction,
		"lot_size":  lotSize,
	})
	if err != nil {
		return nil, err
	}

	trade := &domain.Trade{
		ID:           uuid.New(),
		UserID:       userID,
		Symbol:       symbol,
		Direction:    direction,
		LotSize:      lotSize,
		EntryPrice:   entryPrice,
		CurrentPrice: entryPrice,
		Profit:       0,
		Status:       domain.TradeStatusActive,
		Mode:         mode,
		Signature:    sig,
		CreatedAt:    time.Now(),
	}
	if err := s.tradeRepo.Save(ctx, trade); err != nil {
		return nil, err
	}

	return trade, nil
}

// CloseTrade moves the trade from the active set to history at the given
// exit price and applies its realized profit to the owning user: a gain
// credits both profit and balance, a loss is added to cumulative profit and
// debited from the balance. A debit larger than the balance is skipped and
// the balance keeps its value. A closed trade can never be closed again.
func (s *TradingService) CloseTrade(ctx context.Context, tradeID uuid.UUID, exitPrice float64) (*domain.Trade, error) {
	var trade *domain.Trade
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		trade, err = s.tradeRepo.GetByIDForUpdate(ctx, tradeID)
		if err != nil {
			return err
		}
		if !trade.IsActive() {
			return domain.ErrTradeAlreadyClosed
		}

		profit := trade.ProfitAt(exitPrice)
		now := time.Now()
		trade.ExitPrice = &exitPrice
		trade.CurrentPrice = exitPrice
		trade.Profit = profit
		trade.Status = domain.TradeStatusClosed
		trade.ClosedAt = &now

		trade.ClosingSignature, err = s.signer.Sign(map[string]any{
			"trade_id":   tradeID,
			"exit_price": exitPrice,
			"profit":     profit,
		})
		if err != nil {
			return err
		}

		if err := s.tradeRepo.Close(ctx, trade); err != nil {
			return err
		}

		if profit == 0 {
			return nil
		}

		user, err := s.userRepo.GetByIDForUpdate(ctx, trade.UserID)
		if err != nil {
			return err
		}

		newBalance := user.Balance + profit
		if newBalance < 0 {
			// A debit that would overdraw the balance is rejected outright;
			// cumulative profit still records the full loss.
			newBalance = user.Balance
		}
		return s.userRepo.UpdateBalanceProfit(ctx, user.ID, newBalance, user.Profit+profit)
	})
	if err != nil {
		return nil, err
	}

	return trade, nil
}

// ActiveTrades retrieves the user's active trades.
func (s *TradingService) ActiveTrades(ctx context.Context, userID uuid.UUID) ([]*domain.Trade, error) {
	return s.tradeRepo.GetActiveByUser(ctx, userID)
}

// TradeHistory retrieves the user's closed trades, newest first.
func (s *TradingService) TradeHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Trade, error) {
	return s.tradeRepo.GetHistoryByUser(ctx, userID, limit)
}
