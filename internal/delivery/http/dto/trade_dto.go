package dto

// OpenTradeRequest represents the open trade request payload
type OpenTradeRequest struct {
	Symbol    string  `json:"symbol" validate:"required"`
	Direction string  `json:"direction" validate:"required"` // "buy" or "sell"
	LotSize   float64 `json:"lot_size" validate:"required,gt=0"`
	Mode      string  `json:"mode"` // "manual" (default) or "automatic"
}
