package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pilgrimtrader/internal/domain"
)

const tradeColumns = `id, user_id, symbol, direction, lot_size, entry_price,
	       current_price, exit_price, profit, status, mode,
	       signature, closing_signature, created_at, closed_at`

// TradeRepositoryImpl implements the TradeRepository interface
type TradeRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewTradeRepository creates a new TradeRepository
func NewTradeRepository(db *pgxpool.Pool) domain.TradeRepository {
	return &TradeRepositoryImpl{db: db}
}

func (r *TradeRepositoryImpl) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Save creates a new trade
func (r *TradeRepositoryImpl) Save(ctx context.Context, trade *domain.Trade) error {
	query := `
		INSERT INTO trades (
			id, user_id, symbol, direction, lot_size, entry_price,
			current_price, profit, status, mode, signature, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := r.q(ctx).Exec(ctx, query,
		trade.ID,
		trade.UserID,
		trade.Symbol,
		trade.Direction,
		trade.LotSize,
		trade.EntryPrice,
		trade.CurrentPrice,
		trade.Profit,
		trade.Status,
		trade.Mode,
		trade.Signature,
		trade.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}

	return nil
}

func (r *TradeRepositoryImpl) getOne(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Trade, error) {
	query := fmt.Sprintf(`SELECT %s FROM trades WHERE id = $1`, tradeColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}

	trade, err := scanTrade(r.q(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	return trade, nil
}

// GetByID retrieves a trade by ID
func (r *TradeRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trade, error) {
	return r.getOne(ctx, id, false)
}

// GetByIDForUpdate retrieves a trade by ID with a row lock
func (r *TradeRepositoryImpl) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Trade, error) {
	return r.getOne(ctx, id, true)
}

// Close writes a trade's terminal state
func (r *TradeRepositoryImpl) Close(ctx context.Context, trade *domain.Trade) error {
	query := `
		UPDATE trades
		SET current_price = $1, exit_price = $2, profit = $3, status = $4,
		    closing_signature = $5, closed_at = $6
		WHERE id = $7
	`

	tag, err := r.q(ctx).Exec(ctx, query,
		trade.CurrentPrice,
		trade.ExitPrice,
		trade.Profit,
		trade.Status,
		trade.ClosingSignature,
		trade.ClosedAt,
		trade.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to close trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// GetActiveByUser retrieves a user's active trades
func (r *TradeRepositoryImpl) GetActiveByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Trade, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM trades
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at ASC
	`, tradeColumns)
	return r.queryMany(ctx, query, userID)
}

// GetHistoryByUser retrieves a user's closed trades, newest first
func (r *TradeRepositoryImpl) GetHistoryByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Trade, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM trades
		WHERE user_id = $1 AND status = 'closed'
		ORDER BY closed_at DESC
		LIMIT $2
	`, tradeColumns)
	return r.queryMany(ctx, query, userID, limit)
}

// HasActiveRobotTrade reports whether the user has an active robot trade
func (r *TradeRepositoryImpl) HasActiveRobotTrade(ctx context.Context, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM trades
			WHERE user_id = $1 AND status = 'active' AND mode = 'robot'
		)
	`

	var exists bool
	if err := r.q(ctx).QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check robot trades: %w", err)
	}

	return exists, nil
}

// CountByStatus counts trades with the given status
func (r *TradeRepositoryImpl) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := r.q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM trades WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

func (r *TradeRepositoryImpl) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Trade, error) {
	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []*domain.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

func scanTrade(row pgx.Row) (*domain.Trade, error) {
	trade := &domain.Trade{}
	err := row.Scan(
		&trade.ID,
		&trade.UserID,
		&trade.Symbol,
		&trade.Direction,
		&trade.LotSize,
		&trade.EntryPrice,
		&trade.CurrentPrice,
		&trade.ExitPrice,
		&trade.Profit,
		&trade.Status,
		&trade.Mode,
		&trade.Signature,
		&trade.ClosingSignature,
		&trade.CreatedAt,
		&trade.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return trade, nil
}
