package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContractSize is the standard lot notional used in the profit formula.
// Profit = priceDiff * lotSize * ContractSize.
const ContractSize = 100000.0

// Trade represents a single trade, active or closed
type Trade struct {
	ID               uuid.UUID        `json:"id"`
	UserID           uuid.UUID        `json:"user_id"`
	Symbol           string           `json:"symbol"`
	Direction        string           `json:"direction"`
	LotSize          float64          `json:"lot_size"`
	EntryPrice       float64          `json:"entry_price"`
	CurrentPrice     float64          `json:"current_price"`
	ExitPrice        *float64         `json:"exit_price,omitempty"`
	Profit           float64          `json:"profit"`
	Status           string           `json:"status"`
	Mode             string           `json:"mode"`
	Signature        *SignatureRecord `json:"signature,omitempty"`
	ClosingSignature *SignatureRecord `json:"closing_signature,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	ClosedAt         *time.Time       `json:"closed_at,omitempty"`
}

// TradeDirection constants
const (
	DirectionBuy  = "buy"
	DirectionSell = "sell"
)

// TradeStatus constants
const (
	TradeStatusActive = "active"
	TradeStatusClosed = "closed"
)

// TradeMode constants
const (
	TradeModeManual    = "manual"
	TradeModeAutomatic = "automatic"
	TradeModeRobot     = "robot"
)

// IsActive reports whether the trade is still in the active set.
func (t *Trade) IsActive() bool {
	return t.Status == TradeStatusActive
}

// ProfitAt computes the realized profit for closing at the given exit price.
func (t *Trade) ProfitAt(exitPrice float64) float64 {
	priceDiff := exitPrice - t.EntryPrice
	if t.Direction == DirectionSell {
		priceDiff = t.EntryPrice - exitPrice
	}
	return priceDiff * t.LotSize * ContractSize
}
