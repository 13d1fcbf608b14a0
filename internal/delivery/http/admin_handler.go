package http

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"pilgrimtrader/internal/delivery/http/dto"
	"pilgrimtrader/internal/domain"
	"pilgrimtrader/internal/middleware"
	"pilgrimtrader/internal/usecase"
)

// AdminHandler handles administrative requests
type AdminHandler struct {
	userRepo    domain.UserRepository
	tradeRepo   domain.TradeRepository
	txRepo      domain.TransactionRepository
	ledger      *usecase.LedgerService
	integration *usecase.IntegrationService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	userRepo domain.UserRepository,
	tradeRepo domain.TradeRepository,
	txRepo domain.TransactionRepository,
	ledger *usecase.LedgerService,
	integration *usecase.IntegrationService,
) *AdminHandler {
	return &AdminHandler{
		userRepo:    userRepo,
		tradeRepo:   tradeRepo,
		txRepo:      txRepo,
		ledger:      ledger,
		integration: integration,
	}
}

// GetUsers returns all registered users
// GET /api/admin/users
func (h *AdminHandler) GetUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.userRepo.GetAll(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get users", err)
	}

	return SuccessResponse(c, dto.NewUserOutputs(users))
}

// GetPendingUsers returns users awaiting approval
// GET /api/admin/users/pending
func (h *AdminHandler) GetPendingUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.userRepo.GetByStatus(ctx, domain.UserStatusPending)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get pending users", err)
	}

	return SuccessResponse(c, dto.NewUserOutputs(users))
}

// ApproveUser marks a user account as approved
// POST /api/admin/users/:id/approve
func (h *AdminHandler) ApproveUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid user ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.ledger.ApproveUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return NotFoundResponse(c, "User not found")
		}
		return InternalServerErrorResponse(c, "Failed to approve user", err)
	}

	return SuccessMessageResponse(c, "User approved", dto.NewUserOutput(user))
}

// RejectUser marks a user account as rejected
// POST /api/admin/users/:id/reject
func (h *AdminHandler) RejectUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid user ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.ledger.RejectUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return NotFoundResponse(c, "User not found")
		}
		return InternalServerErrorResponse(c, "Failed to reject user", err)
	}

	return SuccessMessageResponse(c, "User rejected", dto.NewUserOutput(user))
}

// DeleteUser removes a user and all of their records
// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid user ID")
	}

	// An admin must not delete their own account through this endpoint.
	selfID, err := middleware.GetUserID(c)
	if err == nil && selfID == userID {
		return BadRequestResponse(c, "Cannot delete own account")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.ledger.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return NotFoundResponse(c, "User not found")
		}
		return InternalServerErrorResponse(c, "Failed to delete user", err)
	}

	return SuccessMessageResponse(c, "User deleted", nil)
}

// GetPendingTransactions returns all transactions awaiting processing
// GET /api/admin/transactions/pending
func (h *AdminHandler) GetPendingTransactions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	txs, err := h.txRepo.GetPending(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get pending transactions", err)
	}

	return SuccessResponse(c, txs)
}

// ProcessTransaction applies a pending transaction to its wallet
// POST /api/admin/transactions/:id/process
func (h *AdminHandler) ProcessTransaction(c echo.Context) error {
	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid transaction ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.ledger.ProcessTransaction(ctx, txID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return NotFoundResponse(c, "Transaction not found")
		case errors.Is(err, domain.ErrTransactionProcessed):
			return ConflictResponse(c, "Transaction already processed")
		case errors.Is(err, domain.ErrInsufficientFunds):
			// The transaction was marked failed; report why.
			return BadRequestResponse(c, "Insufficient funds, transaction marked failed")
		}
		return InternalServerErrorResponse(c, "Failed to process transaction", err)
	}

	return SuccessMessageResponse(c, "Transaction processed", nil)
}

// GetStats returns system-wide counters for the admin dashboard
// GET /api/admin/stats
func (h *AdminHandler) GetStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	agg, err := h.userRepo.Aggregates(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get user aggregates", err)
	}

	activeTrades, err := h.tradeRepo.CountByStatus(ctx, domain.TradeStatusActive)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to count active trades", err)
	}
	closedTrades, err := h.tradeRepo.CountByStatus(ctx, domain.TradeStatusClosed)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to count closed trades", err)
	}

	pendingTxs, err := h.txRepo.CountPending(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to count pending transactions", err)
	}

	_, connected := h.integration.Status()

	return SuccessResponse(c, map[string]interface{}{
		"total_users":          agg.Total,
		"approved_users":       agg.Approved,
		"pending_users":        agg.Pending,
		"total_balance":        agg.TotalBalance,
		"total_profit":         agg.TotalProfit,
		"active_trades":        activeTrades,
		"closed_trades":        closedTrades,
		"pending_transactions": pendingTxs,
		"platform_connected":   connected,
	})
}

// ConnectPlatform opens a session against the external trading platform
// POST /api/admin/platform/connect
func (h *AdminHandler) ConnectPlatform(c echo.Context) error {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.PlatformConnectRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.URL == "" || req.APIKey == "" {
		return BadRequestResponse(c, "URL and API key are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	handle, err := h.integration.Connect(ctx, adminID, req.URL, req.APIKey)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to connect to trading platform", err)
	}

	return SuccessMessageResponse(c, "Connected to trading platform", handle)
}

// DisconnectPlatform drops the trading platform session
// POST /api/admin/platform/disconnect
func (h *AdminHandler) DisconnectPlatform(c echo.Context) error {
	h.integration.Disconnect()
	return SuccessMessageResponse(c, "Disconnected from trading platform", nil)
}

// PlatformStatus reports the current trading platform session
// GET /api/admin/platform/status
func (h *AdminHandler) PlatformStatus(c echo.Context) error {
	handle, connected := h.integration.Status()
	return SuccessResponse(c, map[string]interface{}{
		"connected": connected,
		"session":   handle,
	})
}

// PlatformBalance returns the remote trading platform balance
// GET /api/admin/platform/balance
func (h *AdminHandler) PlatformBalance(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	balance, err := h.integration.PlatformBalance(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			return BadRequestResponse(c, "Not connected to trading platform")
		}
		return InternalServerErrorResponse(c, "Failed to get platform balance", err)
	}

	return SuccessResponse(c, map[string]interface{}{
		"balance": balance,
	})
}

// PlatformWithdraw pulls funds from the platform into the local wallet
// POST /api/admin/platform/withdraw
func (h *AdminHandler) PlatformWithdraw(c echo.Context) error {
	var req dto.PlatformTransferRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	tx, err := h.integration.WithdrawFromPlatform(ctx, req.Amount, req.Currency)
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			return BadRequestResponse(c, "Not connected to trading platform")
		}
		if errors.Is(err, domain.ErrInvalidAmount) {
			return BadRequestResponse(c, "Amount must be positive")
		}
		return InternalServerErrorResponse(c, "Failed to withdraw from platform", err)
	}

	return SuccessMessageResponse(c, "Withdrawal recorded", tx)
}

// PlatformDeposit pushes local wallet funds out to the platform
// POST /api/admin/platform/deposit
func (h *AdminHandler) PlatformDeposit(c echo.Context) error {
	var req dto.PlatformTransferRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	tx, err := h.integration.DepositToPlatform(ctx, req.Amount, req.Currency)
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			return BadRequestResponse(c, "Not connected to trading platform")
		}
		if errors.Is(err, domain.ErrInvalidAmount) {
			return BadRequestResponse(c, "Amount must be positive")
		}
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return BadRequestResponse(c, "Insufficient funds")
		}
		return InternalServerErrorResponse(c, "Failed to deposit to platform", err)
	}

	return SuccessMessageResponse(c, "Deposit recorded", tx)
}
