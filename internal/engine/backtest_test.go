package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/helmsman/internal/config"
	"github.com/aristath/helmsman/internal/domain"
	helpers "github.com/aristath/helmsman/internal/testing"
)

func testStrategyConfig() config.StrategyConfig {
	return config.StrategyConfig{
		Symbols:             []string{"AAPL", "MSFT"},
		Timeframes:          []domain.Timeframe{domain.Timeframe1h, domain.Timeframe1d},
		IndexSymbol:         "SPY",
		VolatilitySymbol:    "VIX",
		RiskPerTrade:        0.01,
		MaxOpenPositions:    3,
		SectorExposureLimit: 0.30,
		InitialCapital:      100_000,
	}
}

func testProvider() *helpers.MockProvider {
	data := helpers.NewMockProvider()
	data.SetBars("AAPL", domain.Timeframe1h, helpers.UptrendSeries("AAPL", domain.Timeframe1h, 600))
	data.SetBars("AAPL", domain.Timeframe1d, helpers.UptrendSeries("AAPL", domain.Timeframe1d, 60))
	data.SetBars("MSFT", domain.Timeframe1h, helpers.DowntrendSeries("MSFT", domain.Timeframe1h, 600))
	data.SetBars("MSFT", domain.Timeframe1d, helpers.DowntrendSeries("MSFT", domain.Timeframe1d, 60))
	data.SetBars("SPY", domain.Timeframe1d, helpers.UptrendSeries("SPY", domain.Timeframe1d, 60))
	data.SetSectorBars("technology", helpers.UptrendSeries("XLK", domain.Timeframe1d, 60))
	data.SetMacroBars("VIX", helpers.FlatSeries("VIX", domain.Timeframe1d, 60))
	data.SetSector("AAPL", "technology")
	data.SetSector("MSFT", "technology")
	return data
}

func TestRunBacktest(t *testing.T) {
	e := New(testStrategyConfig(), testProvider(), nil, zerolog.Nop())

	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	result, err := e.RunBacktest(context.Background(), start, end)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, start, result.StartDate)
	assert.Equal(t, end, result.EndDate)
	assert.InDelta(t, 100_000, result.InitialValue, 1e-9)
	assert.Len(t, result.History, 6, "One history sample per calendar day")
	assert.Equal(t, len(result.Trades), result.TradeCount)

	// Ledger invariants hold after any run
	l := e.Ledger()
	assert.GreaterOrEqual(t, l.AvailableCapital(), 0.0)
	assert.LessOrEqual(t, l.OpenCount(), 3)
	assert.Greater(t, l.PortfolioValue(), 0.0)
	assert.InDelta(t, result.FinalValue, result.History[len(result.History)-1].Value, 1e-9)
}

func TestRunBacktestInvalidRange(t *testing.T) {
	e := New(testStrategyConfig(), testProvider(), nil, zerolog.Nop())

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	_, err := e.RunBacktest(context.Background(), start, end)
	assert.Error(t, err)
}

func TestRunBacktestCancellation(t *testing.T) {
	e := New(testStrategyConfig(), testProvider(), nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	_, err := e.RunBacktest(ctx, start, end)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunBacktestWithoutMarketData(t *testing.T) {
	e := New(testStrategyConfig(), helpers.NewMockProvider(), nil, zerolog.Nop())

	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)

	// A provider with no data must still complete; every cycle just has
	// nothing to do
	result, err := e.RunBacktest(context.Background(), start, end)
	require.NoError(t, err)
	assert.Zero(t, result.TradeCount)
	assert.InDelta(t, 100_000, result.FinalValue, 1e-9)
}
