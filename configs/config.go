package configs

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Signing  SigningConfig
	Robot    RobotConfig
	Market   MarketConfig
	Platform PlatformConfig
	Admin    AdminConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// SigningConfig holds transaction signing configuration
type SigningConfig struct {
	Secret string
	Signer string
}

// RobotConfig holds robot trading tuning
type RobotConfig struct {
	LotSize         float64
	EvalInterval    time.Duration
	ProfitThreshold float64
	LossThreshold   float64
	MaxCycles       int
}

// MarketConfig holds market data refresh configuration
type MarketConfig struct {
	RefreshSpec string
	SyncSpec    string
}

// PlatformConfig holds trading platform bridge configuration
type PlatformConfig struct {
	URL    string
	APIKey string
}

// AdminConfig holds the seeded admin account
type AdminConfig struct {
	Email          string
	Password       string
	OpeningBalance float64
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Signing: SigningConfig{
			Secret: getEnv("SIGNING_SECRET", "dev-signing-secret"),
			Signer: getEnv("SIGNING_IDENTITY", "Pilgrim Trader"),
		},
		Robot: RobotConfig{
			LotSize:         getEnvFloat("ROBOT_LOT_SIZE", 0.1),
			EvalInterval:    getEnvDuration("ROBOT_EVAL_INTERVAL", 6*time.Second),
			ProfitThreshold: getEnvFloat("ROBOT_PROFIT_THRESHOLD", 0.02),
			LossThreshold:   getEnvFloat("ROBOT_LOSS_THRESHOLD", -0.01),
			MaxCycles:       getEnvInt("ROBOT_MAX_CYCLES", 100),
		},
		Market: MarketConfig{
			RefreshSpec: getEnv("MARKET_REFRESH_SPEC", "* * * * * *"),
			SyncSpec:    getEnv("PLATFORM_SYNC_SPEC", "*/30 * * * * *"),
		},
		Platform: PlatformConfig{
			URL:    getEnv("PLATFORM_URL", "http://localhost:9000"),
			APIKey: getEnv("PLATFORM_API_KEY", ""),
		},
		Admin: AdminConfig{
			Email:          getEnv("ADMIN_EMAIL", "admin@pilgrimtrader.local"),
			Password:       getEnv("ADMIN_PASSWORD", "admin123"),
			OpeningBalance: getEnvFloat("ADMIN_OPENING_BALANCE", 1000000),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
