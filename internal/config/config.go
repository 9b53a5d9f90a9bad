// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/helmsman/internal/domain"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir     string
	ResultsPath string
	LogLevel    string
	Port        int
	DevMode     bool

	Strategy StrategyConfig
	Archive  ArchiveConfig
}

// StrategyConfig holds the strategy and simulation parameters
type StrategyConfig struct {
	Symbols             []string
	Timeframes          []domain.Timeframe
	IndexSymbol         string // Market index used for regime detection (e.g., SPY)
	VolatilitySymbol    string // Volatility index used for risk scoring (e.g., VIX)
	RiskPerTrade        float64
	MaxOpenPositions    int
	SectorExposureLimit float64
	InitialCapital      float64
	BacktestDays        int
	LiveInterval        time.Duration
}

// ArchiveConfig holds S3-compatible results archive settings.
// Archiving is disabled unless a bucket is configured.
type ArchiveConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		if _, err := os.Stat("../data"); err == nil {
			dataDir = "../data"
		} else {
			dataDir = "./data"
		}
	}

	cfg := &Config{
		DataDir:     dataDir,
		ResultsPath: getEnv("RESULTS_PATH", dataDir+"/results.json"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Port:        getEnvAsInt("GO_PORT", 8001),
		DevMode:     getEnvAsBool("DEV_MODE", false),
		Strategy: StrategyConfig{
			Symbols:             splitList(getEnv("SYMBOLS", "")),
			Timeframes:          parseTimeframes(getEnv("TIMEFRAMES", "15m,1h,4h,1d")),
			IndexSymbol:         getEnv("INDEX_SYMBOL", "SPY"),
			VolatilitySymbol:    getEnv("VOLATILITY_SYMBOL", "VIX"),
			RiskPerTrade:        getEnvAsFloat("RISK_PER_TRADE", 0.01),
			MaxOpenPositions:    getEnvAsInt("MAX_OPEN_POSITIONS", 5),
			SectorExposureLimit: getEnvAsFloat("SECTOR_EXPOSURE_LIMIT", 0.30),
			InitialCapital:      getEnvAsFloat("INITIAL_CAPITAL", 100000),
			BacktestDays:        getEnvAsInt("BACKTEST_DAYS", 180),
			LiveInterval:        time.Duration(getEnvAsInt("LIVE_INTERVAL_SECONDS", 3600)) * time.Second,
		},
		Archive: ArchiveConfig{
			Enabled:         getEnv("ARCHIVE_BUCKET", "") != "",
			Endpoint:        getEnv("ARCHIVE_ENDPOINT", ""),
			Region:          getEnv("ARCHIVE_REGION", "auto"),
			Bucket:          getEnv("ARCHIVE_BUCKET", ""),
			AccessKeyID:     getEnv("ARCHIVE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("ARCHIVE_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present.
// A misconfigured strategy is fatal at startup; everything else degrades.
func (c *Config) Validate() error {
	if len(c.Strategy.Symbols) == 0 {
		return fmt.Errorf("no symbols configured: set SYMBOLS")
	}

	if len(c.Strategy.Timeframes) == 0 {
		return fmt.Errorf("no timeframes configured: set TIMEFRAMES")
	}

	for _, tf := range c.Strategy.Timeframes {
		if !tf.IsValid() {
			return fmt.Errorf("unsupported timeframe: %s", tf)
		}
	}

	if c.Strategy.RiskPerTrade <= 0 || c.Strategy.RiskPerTrade >= 1 {
		return fmt.Errorf("risk per trade must be in (0, 1), got %f", c.Strategy.RiskPerTrade)
	}

	if c.Strategy.MaxOpenPositions <= 0 {
		return fmt.Errorf("max open positions must be positive, got %d", c.Strategy.MaxOpenPositions)
	}

	if c.Strategy.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %f", c.Strategy.InitialCapital)
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

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

func parseTimeframes(value string) []domain.Timeframe {
	out := make([]domain.Timeframe, 0, 4)
	for _, p := range splitList(value) {
		out = append(out, domain.Timeframe(strings.ToLower(p)))
	}
	return out
}
