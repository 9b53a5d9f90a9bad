package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/helmsman/internal/domain"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SYMBOLS", "aapl, msft,nvda")
	t.Setenv("TIMEFRAMES", "1h,1d")
	t.Setenv("INDEX_SYMBOL", "QQQ")
	t.Setenv("RISK_PER_TRADE", "0.02")
	t.Setenv("MAX_OPEN_POSITIONS", "7")
	t.Setenv("INITIAL_CAPITAL", "50000")
	t.Setenv("LIVE_INTERVAL_SECONDS", "900")
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, cfg.Strategy.Symbols)
	assert.Equal(t, []domain.Timeframe{domain.Timeframe1h, domain.Timeframe1d}, cfg.Strategy.Timeframes)
	assert.Equal(t, "QQQ", cfg.Strategy.IndexSymbol)
	assert.InDelta(t, 0.02, cfg.Strategy.RiskPerTrade, 1e-9)
	assert.Equal(t, 7, cfg.Strategy.MaxOpenPositions)
	assert.InDelta(t, 50000, cfg.Strategy.InitialCapital, 1e-9)
	assert.Equal(t, 15*time.Minute, cfg.Strategy.LiveInterval)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SYMBOLS", "AAPL")
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "SPY", cfg.Strategy.IndexSymbol)
	assert.Equal(t, "VIX", cfg.Strategy.VolatilitySymbol)
	assert.Len(t, cfg.Strategy.Timeframes, 4)
	assert.InDelta(t, 0.01, cfg.Strategy.RiskPerTrade, 1e-9)
	assert.Equal(t, 180, cfg.Strategy.BacktestDays)
	assert.Equal(t, 8001, cfg.Port)
	assert.False(t, cfg.Archive.Enabled)
}

func TestLoadRequiresSymbols(t *testing.T) {
	t.Setenv("SYMBOLS", "")
	t.Setenv("DATA_DIR", t.TempDir())

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadArchiveEnabledByBucket(t *testing.T) {
	t.Setenv("SYMBOLS", "AAPL")
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("ARCHIVE_BUCKET", "helmsman-results")
	t.Setenv("ARCHIVE_ENDPOINT", "https://storage.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "helmsman-results", cfg.Archive.Bucket)
	assert.Equal(t, "auto", cfg.Archive.Region)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Strategy: StrategyConfig{
			Symbols:          []string{"AAPL"},
			Timeframes:       []domain.Timeframe{domain.Timeframe1h},
			RiskPerTrade:     0.01,
			MaxOpenPositions: 5,
			InitialCapital:   100_000,
		}}
	}
	require.NoError(t, valid().Validate())

	c := valid()
	c.Strategy.Timeframes = []domain.Timeframe{"2h"}
	assert.Error(t, c.Validate(), "Unsupported timeframe")

	c = valid()
	c.Strategy.RiskPerTrade = 1.5
	assert.Error(t, c.Validate())

	c = valid()
	c.Strategy.MaxOpenPositions = 0
	assert.Error(t, c.Validate())

	c = valid()
	c.Strategy.InitialCapital = 0
	assert.Error(t, c.Validate())
}
