package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration. Quantitative assumptions (trading
// days, lookback, risk-free rate) live here so they stay auditable and
// overridable per environment and per test.
type Config struct {
	Port         int
	LogLevel     string
	DevMode      bool
	DatabasePath string

	// Quantitative conventions
	RiskFreeRate      float64 // annualized, e.g. 0.01 for 1%
	TradingDays       int     // periods per year for annualization
	LookbackDays      int     // historical window for analysis, calendar days
	ProjectionHorizon int     // simulated forward trading days

	// Market data
	BenchmarkSymbol    string
	RecommendationTopN int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnvAsInt("PORT", 8001),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		DatabasePath:       getEnv("DATABASE_PATH", "./data/prices.db"),
		RiskFreeRate:       getEnvAsFloat("RISK_FREE_RATE", 0.01),
		TradingDays:        getEnvAsInt("TRADING_DAYS", 252),
		LookbackDays:       getEnvAsInt("LOOKBACK_DAYS", 365),
		ProjectionHorizon:  getEnvAsInt("PROJECTION_HORIZON", 252),
		BenchmarkSymbol:    getEnv("BENCHMARK_SYMBOL", "^GSPC"),
		RecommendationTopN: getEnvAsInt("RECOMMENDATION_TOP_N", 2),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.TradingDays <= 0 {
		return fmt.Errorf("TRADING_DAYS must be positive, got %d", c.TradingDays)
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("LOOKBACK_DAYS must be positive, got %d", c.LookbackDays)
	}
	if c.ProjectionHorizon <= 0 {
		return fmt.Errorf("PROJECTION_HORIZON must be positive, got %d", c.ProjectionHorizon)
	}
	if c.BenchmarkSymbol == "" {
		return fmt.Errorf("BENCHMARK_SYMBOL is required")
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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
