package dto

// DepositRequest represents a deposit request payload
type DepositRequest struct {
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	Method  string  `json:"method" validate:"required"`
	Details string  `json:"details"`
}

// WithdrawRequest represents a withdrawal request payload
type WithdrawRequest struct {
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	Method  string  `json:"method" validate:"required"`
	Details string  `json:"details"`
}

// TransferRequest represents a transfer request payload
type TransferRequest struct {
	ToAccount string  `json:"to_account" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
}

// PlatformConnectRequest represents a trading platform connection payload
type PlatformConnectRequest struct {
	URL    string `json:"url" validate:"required"`
	APIKey string `json:"api_key" validate:"required"`
}

// PlatformTransferRequest represents a platform withdraw/deposit payload
type PlatformTransferRequest struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency"`
}
