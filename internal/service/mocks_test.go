package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"pilgrimtrader/internal/domain"
)

// Minimal in-memory repositories for driving the robot loop through the
// real TradingService. Methods the loop never touches fall through to the
// embedded nil interface and panic if reached.

type passTxManager struct{}

func (passTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubUserRepo struct {
	domain.UserRepository
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *stubUserRepo) add(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
}

func (r *stubUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUserRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *stubUserRepo) UpdateBalanceProfit(ctx context.Context, userID uuid.UUID, balance, profit float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Balance = balance
	u.Profit = profit
	return nil
}

type stubTradeRepo struct {
	domain.TradeRepository
	mu     sync.Mutex
	trades map[uuid.UUID]*domain.Trade
}

func newStubTradeRepo() *stubTradeRepo {
	return &stubTradeRepo{trades: make(map[uuid.UUID]*domain.Trade)}
}

func (r *stubTradeRepo) Save(ctx context.Context, trade *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *trade
	r.trades[trade.ID] = &cp
	return nil
}

func (r *stubTradeRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trades[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *stubTradeRepo) Close(ctx context.Context, trade *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trades[trade.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *trade
	r.trades[trade.ID] = &cp
	return nil
}

func (r *stubTradeRepo) HasActiveRobotTrade(ctx context.Context, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trades {
		if t.UserID == userID && t.Status == domain.TradeStatusActive && t.Mode == domain.TradeModeRobot {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubTradeRepo) countClosed(userID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.trades {
		if t.UserID == userID && t.Status == domain.TradeStatusClosed {
			n++
		}
	}
	return n
}
