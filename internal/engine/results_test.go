package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/internal/modules/ledger"
	"github.com/aristath/helmsman/internal/modules/performance"
	"github.com/aristath/helmsman/internal/modules/regime"
)

func TestSaveAndLoadResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "backtest.json")
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	original := &BacktestResult{
		RunID:        "run-1",
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, 5),
		InitialValue: 100_000,
		FinalValue:   104_200,
		TradeCount:   2,
		History: []performance.Sample{
			{Date: start, Value: 100_000},
			{Date: start.AddDate(0, 0, 5), Value: 104_200, OpenPositions: 1},
		},
		Trades: []ledger.TradeRecord{
			{
				ID:         "t1",
				PositionID: "p1",
				Symbol:     "AAPL",
				Side:       ledger.SideEntry,
				Direction:  domain.DirectionLong,
				Price:      100,
				Size:       0.1,
				Allocated:  10_000,
				ExecutedAt: start,
				Regime:     regime.RegimeBullish,
				Sector:     "technology",
			},
			{
				ID:         "t2",
				PositionID: "p1",
				Symbol:     "AAPL",
				Side:       ledger.SideExit,
				Direction:  domain.DirectionLong,
				Price:      142,
				Size:       0.1,
				Allocated:  10_000,
				ExecutedAt: start.AddDate(0, 0, 3),
				Regime:     regime.RegimeBullish,
				Sector:     "technology",
				ExitReason: ledger.ExitTakeProfit,
				PnL:        4_200,
			},
		},
		Metrics: performance.Metrics{
			TotalReturnPct: 4.2,
			WinRate:        1.0,
			ClosedTrades:   1,
		},
		Parameters: Parameters{
			Symbols:          []string{"AAPL"},
			Timeframes:       []domain.Timeframe{domain.Timeframe1h},
			IndexSymbol:      "SPY",
			RiskPerTrade:     0.01,
			MaxOpenPositions: 3,
			InitialCapital:   100_000,
		},
	}

	require.NoError(t, SaveResults(path, original))

	loaded, err := LoadResults(path)
	require.NoError(t, err)

	assert.Equal(t, original.RunID, loaded.RunID)
	assert.InDelta(t, original.Metrics.TotalReturnPct, loaded.Metrics.TotalReturnPct, 1e-9)
	assert.Equal(t, original.TradeCount, loaded.TradeCount)
	assert.Equal(t, original.Parameters, loaded.Parameters)
	require.Len(t, loaded.Trades, 2)
	assert.Equal(t, ledger.ExitTakeProfit, loaded.Trades[1].ExitReason)
	assert.True(t, original.StartDate.Equal(loaded.StartDate))
}

func TestSaveResultsRejectsNil(t *testing.T) {
	assert.Error(t, SaveResults(filepath.Join(t.TempDir(), "x.json"), nil))
}

func TestLoadResultsMissingFile(t *testing.T) {
	_, err := LoadResults(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
