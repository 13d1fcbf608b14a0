package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"pilgrimtrader/internal/domain"
)

// Mock implementations backed by in-memory maps. Get methods hand out
// copies so pending mutations never leak into the store before an
// explicit update call, mirroring database semantics.

type passTxManager struct{}

func (passTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.AccountNumber == accountNumber {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) GetByAccountNumberForUpdate(ctx context.Context, accountNumber string) (*domain.User, error) {
	return r.GetByAccountNumber(ctx, accountNumber)
}

func (r *memUserRepo) UpdateBalanceProfit(ctx context.Context, userID uuid.UUID, balance, profit float64) error {
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

func (r *memUserRepo) UpdateStatus(ctx context.Context, userID uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Status = status
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.users, userID)
	return nil
}

func (r *memUserRepo) GetAll(ctx context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out, nil
}

func (r *memUserRepo) GetByStatus(ctx context.Context, status string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if u.Status == status {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memUserRepo) Aggregates(ctx context.Context) (*domain.UserAggregates, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg := &domain.UserAggregates{}
	for _, u := range r.users {
		agg.Total++
		switch u.Status {
		case domain.UserStatusApproved:
			agg.Approved++
		case domain.UserStatusPending:
			agg.Pending++
		}
		agg.TotalBalance += u.Balance
		agg.TotalProfit += u.Profit
	}
	return agg, nil
}

type memTradeRepo struct {
	mu     sync.Mutex
	trades map[uuid.UUID]*domain.Trade
}

func newMemTradeRepo() *memTradeRepo {
	return &memTradeRepo{trades: make(map[uuid.UUID]*domain.Trade)}
}

func (r *memTradeRepo) Save(ctx context.Context, trade *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *trade
	r.trades[trade.ID] = &cp
	return nil
}

func (r *memTradeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trades[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTradeRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Trade, error) {
	return r.GetByID(ctx, id)
}

func (r *memTradeRepo) Close(ctx context.Context, trade *domain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trades[trade.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *trade
	r.trades[trade.ID] = &cp
	return nil
}

func (r *memTradeRepo) GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Trade, error) {
	return r.byStatus(userID, domain.TradeStatusActive, 0), nil
}

func (r *memTradeRepo) GetHistoryByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Trade, error) {
	return r.byStatus(userID, domain.TradeStatusClosed, limit), nil
}

func (r *memTradeRepo) byStatus(userID uuid.UUID, status string, limit int) []*domain.Trade {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Trade
	for _, t := range r.trades {
		if t.UserID == userID && t.Status == status {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *memTradeRepo) HasActiveRobotTrade(ctx context.Context, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trades {
		if t.UserID == userID && t.Status == domain.TradeStatusActive && t.Mode == domain.TradeModeRobot {
			return true, nil
		}
	}
	return false, nil
}

func (r *memTradeRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.trades {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

type memTransactionRepo struct {
	mu  sync.Mutex
	txs map[uuid.UUID]*domain.Transaction
}

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{txs: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *memTransactionRepo) Save(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tx
	r.txs[tx.ID] = &cp
	return nil
}

func (r *memTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTransactionRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *memTransactionRepo) MarkProcessed(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txs[tx.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *tx
	r.txs[tx.ID] = &cp
	return nil
}

func (r *memTransactionRepo) GetByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Transaction
	for _, t := range r.txs {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memTransactionRepo) GetPending(ctx context.Context) ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Transaction
	for _, t := range r.txs {
		if t.Status == domain.TxStatusPending {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memTransactionRepo) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.txs {
		if t.Reference != nil && *t.Reference == reference {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memTransactionRepo) CountPending(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.txs {
		if t.Status == domain.TxStatusPending {
			n++
		}
	}
	return n, nil
}
