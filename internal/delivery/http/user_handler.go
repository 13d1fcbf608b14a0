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
	"pilgrimtrader/internal/service"
	"pilgrimtrader/internal/usecase"
)

// UserHandler handles user-facing wallet, trading and market requests
type UserHandler struct {
	userRepo  domain.UserRepository
	tradeRepo domain.TradeRepository
	txRepo    domain.TransactionRepository
	ledger    *usecase.LedgerService
	trading   *usecase.TradingService
	market    *service.MarketService
	robot     *service.RobotService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(
	userRepo domain.UserRepository,
	tradeRepo domain.TradeRepository,
	txRepo domain.TransactionRepository,
	ledger *usecase.LedgerService,
	trading *usecase.TradingService,
	market *service.MarketService,
	robot *service.RobotService,
) *UserHandler {
	return &UserHandler{
		userRepo:  userRepo,
		tradeRepo: tradeRepo,
		txRepo:    txRepo,
		ledger:    ledger,
		trading:   trading,
		market:    market,
		robot:     robot,
	}
}

// GetMe returns current user details
// GET /api/user/me
func (h *UserHandler) GetMe(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return NotFoundResponse(c, "User not found")
		}
		return InternalServerErrorResponse(c, "Failed to get user details", err)
	}

	return SuccessResponse(c, dto.NewUserOutput(user))
}

// GetMarket returns the current market snapshot
// GET /api/user/market
func (h *UserHandler) GetMarket(c echo.Context) error {
	return SuccessResponse(c, h.market.Snapshot())
}

// OpenTrade opens a manual or automatic trade at the current market price
// POST /api/user/trades
func (h *UserHandler) OpenTrade(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.OpenTradeRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Direction != domain.DirectionBuy && req.Direction != domain.DirectionSell {
		return BadRequestResponse(c, "Direction must be buy or sell")
	}
	if req.LotSize <= 0 {
		return BadRequestResponse(c, "Lot size must be positive")
	}
	mode := req.Mode
	if mode == "" {
		mode = domain.TradeModeManual
	}
	if mode != domain.TradeModeManual && mode != domain.TradeModeAutomatic {
		return BadRequestResponse(c, "Mode must be manual or automatic")
	}

	quote, err := h.market.GetQuote(req.Symbol)
	if err != nil {
		return BadRequestResponse(c, "Unknown symbol")
	}
	entryPrice := quote.SidePrice(req.Direction)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	trade, err := h.trading.OpenTrade(ctx, userID, req.Symbol, req.Direction, req.LotSize, entryPrice, mode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return NotFoundResponse(c, "User not found")
		}
		if errors.Is(err, domain.ErrInvalidAmount) {
			return BadRequestResponse(c, "Lot size must be positive")
		}
		return InternalServerErrorResponse(c, "Failed to open trade", err)
	}

	return CreatedResponse(c, trade)
}

// CloseTrade closes one of the user's active trades at the current market price
// POST /api/user/trades/:id/close
func (h *UserHandler) CloseTrade(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	tradeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid trade ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	trade, err := h.tradeRepo.GetByID(ctx, tradeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return NotFoundResponse(c, "Trade not found")
		}
		return InternalServerErrorResponse(c, "Failed to get trade", err)
	}
	if trade.UserID != userID {
		return ForbiddenResponse(c, "Trade belongs to another user")
	}

	quote, err := h.market.GetQuote(trade.Symbol)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to quote symbol", err)
	}
	// A buy position exits on the bid, a sell position exits on the ask.
	exitPrice := quote.Price
	if quote.Kind == domain.QuoteKindFX {
		if trade.Direction == domain.DirectionBuy {
			exitPrice = quote.Bid
		} else {
			exitPrice = quote.Ask
		}
	}

	closed, err := h.trading.CloseTrade(ctx, tradeID, exitPrice)
	if err != nil {
		if errors.Is(err, domain.ErrTradeAlreadyClosed) {
			return ConflictResponse(c, "Trade already closed")
		}
		return InternalServerErrorResponse(c, "Failed to close trade", err)
	}

	return SuccessResponse(c, closed)
}

// GetActiveTrades returns the user's open positions
// GET /api/user/trades/active
func (h *UserHandler) GetActiveTrades(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	trades, err := h.trading.ActiveTrades(ctx, userID)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get active trades", err)
	}

	return SuccessResponse(c, trades)
}

// GetTradeHistory returns the user's closed trades
// GET /api/user/trades/history
func (h *UserHandler) GetTradeHistory(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	trades, err := h.trading.TradeHistory(ctx, userID, 100)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get trade history", err)
	}

	return SuccessResponse(c, trades)
}

// Deposit files a pending deposit request
// POST /api/user/deposit
func (h *UserHandler) Deposit(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.DepositRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var details *string
	if req.Details != "" {
		details = &req.Details
	}

	tx, err := h.ledger.CreateTransaction(ctx, userID, domain.KindDeposit, req.Amount, req.Method, details)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) {
			return BadRequestResponse(c, "Amount must be positive")
		}
		if errors.Is(err, domain.ErrNotFound) {
			return NotFoundResponse(c, "User not found")
		}
		return InternalServerErrorResponse(c, "Failed to create deposit", err)
	}

	return CreatedResponse(c, tx)
}

// Withdraw files a pending withdrawal request
// POST /api/user/withdraw
func (h *UserHandler) Withdraw(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.WithdrawRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.ledger.RequestWithdrawal(ctx, userID, req.Amount, req.Method, req.Details)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			return BadRequestResponse(c, "Amount must be positive")
		case errors.Is(err, domain.ErrNotApproved):
			return ForbiddenResponse(c, "Account is not approved for withdrawals")
		case errors.Is(err, domain.ErrInsufficientFunds):
			return BadRequestResponse(c, "Insufficient funds")
		case errors.Is(err, domain.ErrNotFound):
			return NotFoundResponse(c, "User not found")
		}
		return InternalServerErrorResponse(c, "Failed to create withdrawal", err)
	}

	return CreatedResponse(c, tx)
}

// Transfer moves funds to another account immediately
// POST /api/user/transfer
func (h *UserHandler) Transfer(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.TransferRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tx, err := h.ledger.TransferFunds(ctx, userID, req.ToAccount, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			return BadRequestResponse(c, "Amount must be positive")
		case errors.Is(err, domain.ErrNotApproved):
			return ForbiddenResponse(c, "Account is not approved for transfers")
		case errors.Is(err, domain.ErrInsufficientFunds):
			return BadRequestResponse(c, "Insufficient funds")
		case errors.Is(err, domain.ErrInvalidAccount):
			return BadRequestResponse(c, "Invalid destination account")
		case errors.Is(err, domain.ErrNotFound):
			return NotFoundResponse(c, "Account not found")
		}
		return InternalServerErrorResponse(c, "Failed to transfer funds", err)
	}

	return SuccessResponse(c, tx)
}

// GetTransactions returns the user's transaction history
// GET /api/user/transactions
func (h *UserHandler) GetTransactions(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	txs, err := h.txRepo.GetByUser(ctx, userID, 100)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get transactions", err)
	}

	return SuccessResponse(c, txs)
}

// StartRobot starts the automated trading loop for the user
// POST /api/user/robot/start
func (h *UserHandler) StartRobot(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.robot.Start(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrRobotAlreadyActive) {
			return ConflictResponse(c, "Robot trading is already active")
		}
		if errors.Is(err, domain.ErrNotFound) {
			return NotFoundResponse(c, "User not found")
		}
		return InternalServerErrorResponse(c, "Failed to start robot trading", err)
	}

	return SuccessMessageResponse(c, "Robot trading started", nil)
}

// StopRobot stops the automated trading loop for the user
// POST /api/user/robot/stop
func (h *UserHandler) StopRobot(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	if err := h.robot.Stop(userID); err != nil {
		return NotFoundResponse(c, "Robot trading is not active")
	}

	return SuccessMessageResponse(c, "Robot trading stopped", nil)
}

// RobotStatus reports whether the robot loop is running for the user
// GET /api/user/robot/status
func (h *UserHandler) RobotStatus(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	return SuccessResponse(c, map[string]interface{}{
		"running": h.robot.Running(userID),
	})
}
