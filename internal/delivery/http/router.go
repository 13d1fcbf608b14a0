package http

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	custommiddleware "pilgrimtrader/internal/middleware"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	AuthHandler  *AuthHandler
	UserHandler  *UserHandler
	AdminHandler *AdminHandler
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	// Middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging for high-frequency polling endpoints to reduce noise
			path := c.Request().URL.Path
			if strings.HasSuffix(path, "/api/user/market") {
				return true
			}
			if strings.HasSuffix(path, "/api/user/robot/status") {
				return true
			}
			return path == "/health"
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return SuccessResponse(c, map[string]interface{}{
			"status":  "healthy",
			"service": "pilgrimtrader-api",
		})
	})

	// API group
	api := e.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/register", config.AuthHandler.Register)
		auth.POST("/login", config.AuthHandler.Login)
		auth.POST("/logout", config.AuthHandler.Logout)
	}

	// User routes (protected with AuthMiddleware)
	user := api.Group("/user", custommiddleware.AuthMiddleware)
	{
		user.GET("/me", config.UserHandler.GetMe)
		user.GET("/market", config.UserHandler.GetMarket)
		user.POST("/trades", config.UserHandler.OpenTrade)
		user.POST("/trades/:id/close", config.UserHandler.CloseTrade)
		user.GET("/trades/active", config.UserHandler.GetActiveTrades)
		user.GET("/trades/history", config.UserHandler.GetTradeHistory)
		user.POST("/deposit", config.UserHandler.Deposit)
		user.POST("/withdraw", config.UserHandler.Withdraw)
		user.POST("/transfer", config.UserHandler.Transfer)
		user.GET("/transactions", config.UserHandler.GetTransactions)
		user.POST("/robot/start", config.UserHandler.StartRobot)
		user.POST("/robot/stop", config.UserHandler.StopRobot)
		user.GET("/robot/status", config.UserHandler.RobotStatus)
	}

	// Admin routes (protected with AuthMiddleware + AdminMiddleware)
	admin := api.Group("/admin", custommiddleware.AuthMiddleware, custommiddleware.AdminMiddleware)
	{
		admin.GET("/users", config.AdminHandler.GetUsers)
		admin.GET("/users/pending", config.AdminHandler.GetPendingUsers)
		admin.POST("/users/:id/approve", config.AdminHandler.ApproveUser)
		admin.POST("/users/:id/reject", config.AdminHandler.RejectUser)
		admin.DELETE("/users/:id", config.AdminHandler.DeleteUser)
		admin.GET("/transactions/pending", config.AdminHandler.GetPendingTransactions)
		admin.POST("/transactions/:id/process", config.AdminHandler.ProcessTransaction)
		admin.GET("/stats", config.AdminHandler.GetStats)
		admin.POST("/platform/connect", config.AdminHandler.ConnectPlatform)
		admin.POST("/platform/disconnect", config.AdminHandler.DisconnectPlatform)
		admin.GET("/platform/status", config.AdminHandler.PlatformStatus)
		admin.GET("/platform/balance", config.AdminHandler.PlatformBalance)
		admin.POST("/platform/withdraw", config.AdminHandler.PlatformWithdraw)
		admin.POST("/platform/deposit", config.AdminHandler.PlatformDeposit)
	}
}
