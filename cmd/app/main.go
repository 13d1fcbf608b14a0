package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"pilgrimtrader/configs"
	"pilgrimtrader/internal/adapter"
	"pilgrimtrader/internal/database"
	delivery "pilgrimtrader/internal/delivery/http"
	"pilgrimtrader/internal/infra"
	"pilgrimtrader/internal/repository"
	"pilgrimtrader/internal/service"
	"pilgrimtrader/internal/signing"
	"pilgrimtrader/internal/usecase"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg := configs.Load()

	ctx := context.Background()

	// Initialize database
	db, err := infra.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	txManager := repository.NewTxManager(db)

	// Transaction signing
	signer := signing.NewSigner(cfg.Signing.Secret, cfg.Signing.Signer)

	// Initialize services
	ledgerService := usecase.NewLedgerService(userRepo, txRepo, txManager, signer)
	tradingService := usecase.NewTradingService(tradeRepo, userRepo, txManager, signer)
	marketService := service.NewMarketService(time.Now().UnixNano())
	robotService := service.NewRobotService(tradingService, userRepo, tradeRepo, marketService, cfg.Robot, time.Now().UnixNano())

	// External trading platform bridge
	platform := adapter.NewPlatformBridge()
	integrationService := usecase.NewIntegrationService(platform, ledgerService, txRepo, signer)

	// Seed the admin account
	adminHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	if _, err := ledgerService.SeedAdmin(ctx, "Administrator", cfg.Admin.Email, "", string(adminHash), cfg.Admin.OpeningBalance); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	// Start scheduled jobs (market walk + platform sync)
	scheduler := infra.NewScheduler(marketService, integrationService, cfg.Market)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Initialize HTTP server
	e := echo.New()
	e.HideBanner = true

	delivery.SetupRoutes(e, &delivery.RouterConfig{
		AuthHandler:  delivery.NewAuthHandler(ledgerService),
		UserHandler:  delivery.NewUserHandler(userRepo, tradeRepo, txRepo, ledgerService, tradingService, marketService, robotService),
		AdminHandler: delivery.NewAdminHandler(userRepo, tradeRepo, txRepo, ledgerService, integrationService),
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Pilgrim Trader starting on %s", addr)
	log.Printf("Environment: %s", cfg.Server.Env)

	// Run server in goroutine
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop robot loops before closing the database pool they write through.
	robotService.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("[OK] Server exited gracefully")
}
