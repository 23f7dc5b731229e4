package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Admin endpoints (stock administration, settings, snapshot trigger)
	AdminAPIKey string

	// Fee defaults, used until an admin overrides them in the settings table.
	// Bps values are basis points (1/100 of a percent), flat values are cents.
	PurchaseFeeBps     int64
	PurchaseFeeFlat    int64
	TransactionFeeBps  int64
	TransactionFeeFlat int64

	// Cron spec for the stock price snapshot job
	PriceSnapshotSchedule string

	// Per-user limit on order write requests
	OrderRateLimit float64
	OrderRateBurst int
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get values from environment variables with defaults
	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "stockbank"),
		DBPassword: getEnv("DB_PASSWORD", "stockbank"),
		DBName:     getEnv("DB_NAME", "stockbank"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		PurchaseFeeBps:     getEnvInt64("PURCHASE_FEE_BPS", 0),
		PurchaseFeeFlat:    getEnvInt64("PURCHASE_FEE_FLAT", 0),
		TransactionFeeBps:  getEnvInt64("TRANSACTION_FEE_BPS", 0),
		TransactionFeeFlat: getEnvInt64("TRANSACTION_FEE_FLAT", 0),

		PriceSnapshotSchedule: getEnv("PRICE_SNAPSHOT_SCHEDULE", "@every 1h"),

		OrderRateBurst: int(getEnvInt64("ORDER_RATE_BURST", 10)),
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	rateStr := getEnv("ORDER_RATE_LIMIT", "5")
	rate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil || rate <= 0 {
		log.Printf("Warning: invalid ORDER_RATE_LIMIT value '%s', falling back to 5\n", rateStr)
		rate = 5
	}
	config.OrderRateLimit = rate

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt64 parses a non-negative integer environment variable, falling back
// to the default when it is unset or malformed.
func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}
