// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir     string // Base directory for the SQLite databases (always absolute)
	DatabaseURL string // Postgres ledger; empty keeps the ledger in SQLite
	LogLevel    string
	Port        int
	DevMode     bool

	DefaultUSDRate float64 // Used when no price snapshot provides a current rate

	PriceRefresh PriceRefreshConfig
	Optimizer    OptimizerConfig
	Backup       BackupConfig

	MaintenanceSchedule string
}

// PriceRefreshConfig configures the scheduled quote refresh
type PriceRefreshConfig struct {
	Enabled        bool
	Schedule       string
	YahooRateLimit float64 // requests per second
	DolarAPIURL    string
	DolarCasa      string
}

// OptimizerConfig configures the optimizer and its series fetches
type OptimizerConfig struct {
	Simulations     int
	MaxSimulations  int
	FetchTimeout    time.Duration
	FetchRetries    int
	MinTradingDays  int
	HistoryCacheTTL time.Duration
}

// BackupConfig configures database backups to S3-compatible storage
type BackupConfig struct {
	Enabled  bool
	Schedule string
	Bucket   string
	Prefix   string
	Endpoint string // Custom endpoint for S3-compatible providers
	Region   string

	AccessKeyID     string
	SecretAccessKey string
	RetentionDays   int // 0 keeps every backup
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("CARTERA_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Port:           getEnvAsInt("PORT", 8001),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		DefaultUSDRate: getEnvAsFloat("DEFAULT_USD_RATE", 1000),
		PriceRefresh: PriceRefreshConfig{
			Enabled:        getEnvAsBool("PRICE_REFRESH_ENABLED", true),
			Schedule:       getEnv("PRICE_REFRESH_SCHEDULE", "0 */15 11-17 * * 1-5"),
			YahooRateLimit: getEnvAsFloat("YAHOO_RATE_LIMIT", 2),
			DolarAPIURL:    getEnv("DOLAR_API_URL", "https://dolarapi.com/v1/dolares"),
			DolarCasa:      getEnv("DOLAR_CASA", "bolsa"),
		},
		Optimizer: OptimizerConfig{
			Simulations:     getEnvAsInt("OPTIMIZER_SIMULATIONS", 10000),
			MaxSimulations:  getEnvAsInt("OPTIMIZER_MAX_SIMULATIONS", 100000),
			FetchTimeout:    getEnvAsDuration("OPTIMIZER_FETCH_TIMEOUT", 15*time.Second),
			FetchRetries:    getEnvAsInt("OPTIMIZER_FETCH_RETRIES", 2),
			MinTradingDays:  getEnvAsInt("OPTIMIZER_MIN_TRADING_DAYS", 60),
			HistoryCacheTTL: getEnvAsDuration("HISTORY_CACHE_TTL", 12*time.Hour),
		},
		Backup: BackupConfig{
			Enabled:  getEnvAsBool("BACKUP_ENABLED", false),
			Schedule: getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
			Bucket:   getEnv("BACKUP_BUCKET", ""),
			Prefix:   getEnv("BACKUP_PREFIX", "cartera"),
			Endpoint: getEnv("BACKUP_ENDPOINT", ""),
			Region:   getEnv("BACKUP_REGION", "auto"),

			AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "0 30 2 * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and required combinations
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.DefaultUSDRate <= 0 {
		return fmt.Errorf("DEFAULT_USD_RATE must be positive, got %v", c.DefaultUSDRate)
	}
	if c.PriceRefresh.YahooRateLimit <= 0 {
		return fmt.Errorf("YAHOO_RATE_LIMIT must be positive, got %v", c.PriceRefresh.YahooRateLimit)
	}
	if c.Optimizer.Simulations <= 0 || c.Optimizer.Simulations > c.Optimizer.MaxSimulations {
		return fmt.Errorf("OPTIMIZER_SIMULATIONS must be in 1..%d, got %d", c.Optimizer.MaxSimulations, c.Optimizer.Simulations)
	}
	if c.Optimizer.FetchRetries < 0 {
		return fmt.Errorf("OPTIMIZER_FETCH_RETRIES must not be negative")
	}
	if c.Optimizer.MinTradingDays < 2 {
		return fmt.Errorf("OPTIMIZER_MIN_TRADING_DAYS must be at least 2, got %d", c.Optimizer.MinTradingDays)
	}
	if c.Optimizer.FetchTimeout <= 0 {
		return fmt.Errorf("OPTIMIZER_FETCH_TIMEOUT must be positive")
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative")
	}
	if c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("BACKUP_BUCKET is required when BACKUP_ENABLED is set")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
