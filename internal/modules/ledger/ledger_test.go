package ledger

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/internal/modules/regime"
	"github.com/aristath/helmsman/internal/modules/signals"
)

func newTestLedger(maxOpen int) *Ledger {
	return New(Config{
		Log:              zerolog.Nop(),
		InitialCapital:   100_000,
		MaxOpenPositions: maxOpen,
	})
}

func candidate(symbol string, direction domain.Direction, size, price, strength, riskScore float64, stopLoss, target *float64) Candidate {
	return Candidate{
		Signal: signals.Signal{
			Symbol:      symbol,
			Entry:       true,
			Direction:   direction,
			Strength:    strength,
			RiskScore:   riskScore,
			StopLoss:    stopLoss,
			TargetPrice: target,
		},
		Size:   size,
		Price:  price,
		Sector: "technology",
		Regime: regime.RegimeBullish,
	}
}

func ptr(v float64) *float64 { return &v }

func TestExecuteEntriesOpensAndAllocates(t *testing.T) {
	l := newTestLedger(5)
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	opened := l.ExecuteEntries([]Candidate{
		candidate("AAPL", domain.DirectionLong, 0.10, 100, 80, 20, ptr(95), ptr(110)),
	}, at)

	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, l.OpenCount())
	assert.InDelta(t, 90_000, l.AvailableCapital(), 1e-9, "10% allocation reserved")

	pos, ok := l.OpenPosition("AAPL")
	require.True(t, ok)
	assert.Equal(t, StatusOpen, pos.Status)
	assert.InDelta(t, 10_000, pos.Allocated, 1e-9)

	trades := l.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, SideEntry, trades[0].Side)
	assert.Equal(t, pos.ID, trades[0].PositionID)
}

func TestExecuteEntriesPriorityAndCap(t *testing.T) {
	l := newTestLedger(2)
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// strength - risk_score: AAPL 60, MSFT 70, NVDA 30
	opened := l.ExecuteEntries([]Candidate{
		candidate("AAPL", domain.DirectionLong, 0.05, 100, 80, 20, ptr(95), nil),
		candidate("MSFT", domain.DirectionLong, 0.05, 200, 90, 20, ptr(190), nil),
		candidate("NVDA", domain.DirectionLong, 0.05, 300, 50, 20, ptr(290), nil),
	}, at)

	assert.Equal(t, 2, opened)
	assert.Equal(t, 2, l.OpenCount())

	_, msft := l.OpenPosition("MSFT")
	_, aapl := l.OpenPosition("AAPL")
	_, nvda := l.OpenPosition("NVDA")
	assert.True(t, msft)
	assert.True(t, aapl)
	assert.False(t, nvda, "Weakest candidate dropped at the position cap")
}

func TestExecuteEntriesSkipsInvalid(t *testing.T) {
	l := newTestLedger(5)
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, 1, l.ExecuteEntries([]Candidate{
		candidate("AAPL", domain.DirectionLong, 0.10, 100, 80, 20, ptr(95), nil),
	}, at))

	// Duplicate symbol, zero size, and an allocation beyond available
	// capital are warned no-ops
	opened := l.ExecuteEntries([]Candidate{
		candidate("AAPL", domain.DirectionLong, 0.10, 100, 80, 20, ptr(95), nil),
		candidate("MSFT", domain.DirectionLong, 0, 200, 80, 20, ptr(190), nil),
		candidate("NVDA", domain.DirectionLong, 0.95, 300, 80, 20, ptr(290), nil),
	}, at)

	assert.Equal(t, 0, opened)
	assert.Equal(t, 1, l.OpenCount())
	assert.GreaterOrEqual(t, l.AvailableCapital(), 0.0)
}

func TestCheckPositionsStopLoss(t *testing.T) {
	l := newTestLedger(5)
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, 1, l.ExecuteEntries([]Candidate{
		candidate("AAPL", domain.DirectionLong, 0.10, 100, 80, 20, ptr(95), ptr(120)),
	}, at))

	closed := l.CheckPositions(map[string]float64{"AAPL": 94}, at.Add(24*time.Hour))
	assert.Equal(t, 1, closed)
	assert.Equal(t, 0, l.OpenCount())

	positions := l.ClosedPositions()
	require.Len(t, positions, 1)
	assert.Equal(t, ExitStopLoss, positions[0].ExitReason)
	// (94/100 - 1) * 10000
	assert.InDelta(t, -600, positions[0].RealizedPnL, 1e-9)
	assert.InDelta(t, 99_400, l.AvailableCapital(), 1e-9)
}

func TestCheckPositionsTakeProfitShort(t *testing.T) {
	l := newTestLedger(5)
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, 1, l.ExecuteEntries([]Candidate{
		candidate("BTC", domain.DirectionShort, 0.10, 100, 80, 20, ptr(105), ptr(90)),
	}, at))

	// Price falling to the short's target closes at a profit
	closed := l.CheckPositions(map[string]float64{"BTC": 89}, at.Add(time.Hour))
	assert.Equal(t, 1, closed)

	positions := l.ClosedPositions()
	require.Len(t, positions, 1)
	assert.Equal(t, ExitTakeProfit, positions[0].ExitReason)
	// -1 * (89/100 - 1) * 10000
	assert.InDelta(t, 1100, positions[0].RealizedPnL, 1e-9)
}

func TestCheckPositionsNoHit(t *testing.T) {
	l := newTestLedger(5)
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, 1, l.ExecuteEntries([]Candidate{
		candidate("AAPL", domain.DirectionLong, 0.10, 100, 80, 20, ptr(95), ptr(120)),
	}, at))

	assert.Equal(t, 0, l.CheckPositions(map[string]float64{"AAPL": 101}, at))
	assert.Equal(t, 0, l.CheckPositions(map[string]float64{}, at), "No price means no threshold check")
	assert.Equal(t, 1, l.OpenCount())
}

func TestExecuteExits(t *testing.T) {
	l := newTestLedger(5)
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, 1, l.ExecuteEntries([]Candidate{
		candidate("AAPL", domain.DirectionLong, 0.10, 100, 80, 20, ptr(95), nil),
	}, at))

	closed := l.ExecuteExits([]string{"AAPL", "GHOST"}, map[string]float64{"AAPL": 110}, at.Add(time.Hour))
	assert.Equal(t, 1, closed, "Unknown symbols are ignored")

	positions := l.ClosedPositions()
	require.Len(t, positions, 1)
	assert.Equal(t, ExitSignal, positions[0].ExitReason)
	assert.InDelta(t, 1000, positions[0].RealizedPnL, 1e-9)
	assert.InDelta(t, 101_000, l.AvailableCapital(), 1e-9)

	trades := l.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, SideExit, trades[1].Side)
	assert.InDelta(t, 1000, trades[1].PnL, 1e-9)
}

func TestCapitalFlooredAtZero(t *testing.T) {
	l := New(Config{Log: zerolog.Nop(), InitialCapital: 10_000, MaxOpenPositions: 5})
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// A fully-allocated short gapping far through its stop overdraws the
	// simulated account; the ledger floors capital at zero
	require.Equal(t, 1, l.ExecuteEntries([]Candidate{
		candidate("BTC", domain.DirectionShort, 1.0, 100, 80, 20, ptr(105), nil),
	}, at))
	require.Equal(t, 1, l.CheckPositions(map[string]float64{"BTC": 250}, at))

	assert.Equal(t, 0.0, l.AvailableCapital())
	require.Len(t, l.ClosedPositions(), 1)
	assert.InDelta(t, -15_000, l.ClosedPositions()[0].RealizedPnL, 1e-9)
}

func TestRevalueIdempotent(t *testing.T) {
	l := newTestLedger(5)
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, 2, l.ExecuteEntries([]Candidate{
		candidate("AAPL", domain.DirectionLong, 0.10, 100, 80, 20, ptr(95), nil),
		candidate("MSFT", domain.DirectionShort, 0.05, 200, 70, 20, ptr(210), nil),
	}, at))

	prices := map[string]float64{"AAPL": 110, "MSFT": 190}
	first := l.Revalue(prices)
	second := l.Revalue(prices)

	assert.InDelta(t, first, second, 1e-9)

	// available 85000 + AAPL (10000 + 1000) + MSFT short (5000 + 250)
	assert.InDelta(t, 101_250, first, 1e-9)
	assert.InDelta(t, first, l.PortfolioValue(), 1e-9)
}

func TestRevalueWithoutFreshPrice(t *testing.T) {
	l := newTestLedger(5)
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, 1, l.ExecuteEntries([]Candidate{
		candidate("AAPL", domain.DirectionLong, 0.10, 100, 80, 20, ptr(95), nil),
	}, at))

	// No mark for AAPL: the position is carried at its allocation
	assert.InDelta(t, 100_000, l.Revalue(map[string]float64{}), 1e-9)
}

func TestSectorExposure(t *testing.T) {
	l := newTestLedger(5)
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	energy := candidate("XOM", domain.DirectionLong, 0.05, 100, 70, 20, ptr(95), nil)
	energy.Sector = "energy"

	require.Equal(t, 3, l.ExecuteEntries([]Candidate{
		candidate("AAPL", domain.DirectionLong, 0.10, 100, 80, 20, ptr(95), nil),
		candidate("MSFT", domain.DirectionLong, 0.05, 200, 75, 20, ptr(190), nil),
		energy,
	}, at))

	exposure := l.SectorExposure()
	assert.InDelta(t, 0.15, exposure["technology"], 1e-9)
	assert.InDelta(t, 0.05, exposure["energy"], 1e-9)
}
