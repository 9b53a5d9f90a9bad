// Package ledger maintains the simulated portfolio: open positions,
// available capital, and the append-only trade record stream. It is owned by
// a single run loop and is not safe for concurrent mutation.
package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/helmsman/internal/modules/regime"
	"github.com/aristath/helmsman/internal/modules/signals"
)

// TradeWriter persists trade records. The ledger treats persistence failures
// as non-fatal; the in-memory record stream stays authoritative.
type TradeWriter interface {
	Create(record TradeRecord) error
}

// Candidate is a sized entry signal ready for execution, tagged with the
// market context under which it was generated.
type Candidate struct {
	Signal signals.Signal
	Size   float64
	Price  float64
	Sector string
	Regime regime.Regime
}

// Config holds the ledger construction parameters.
type Config struct {
	Log              zerolog.Logger
	InitialCapital   float64
	MaxOpenPositions int
	Repository       TradeWriter
}

// Ledger is the portfolio state machine. Positions move none -> open ->
// closed; capital moves between availableCapital and position allocations.
type Ledger struct {
	log              zerolog.Logger
	availableCapital float64
	portfolioValue   float64
	maxOpenPositions int
	repo             TradeWriter

	open   map[string]*Position
	closed []Position
	trades []TradeRecord
}

// New creates a ledger with all capital available and no positions.
func New(cfg Config) *Ledger {
	return &Ledger{
		log:              cfg.Log.With().Str("component", "ledger").Logger(),
		availableCapital: cfg.InitialCapital,
		portfolioValue:   cfg.InitialCapital,
		maxOpenPositions: cfg.MaxOpenPositions,
		repo:             cfg.Repository,
		open:             make(map[string]*Position),
	}
}

// ExecuteEntries opens positions for the given candidates in descending
// order of (strength - risk score), stopping at the open-position cap.
// Candidates that cannot be funded or are otherwise invalid are skipped with
// a warning, never an error.
func (l *Ledger) ExecuteEntries(candidates []Candidate, at time.Time) int {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Signal.Strength-sorted[i].Signal.RiskScore >
			sorted[j].Signal.Strength-sorted[j].Signal.RiskScore
	})

	opened := 0
	for _, c := range sorted {
		if len(l.open) >= l.maxOpenPositions {
			l.log.Debug().
				Int("max_open_positions", l.maxOpenPositions).
				Msg("Position cap reached, remaining entries skipped")
			break
		}
		if l.openPosition(c, at) {
			opened++
		}
	}
	return opened
}

func (l *Ledger) openPosition(c Candidate, at time.Time) bool {
	if !c.Signal.Entry || c.Size <= 0 || c.Price <= 0 {
		return false
	}
	if _, exists := l.open[c.Signal.Symbol]; exists {
		l.log.Warn().
			Str("symbol", c.Signal.Symbol).
			Msg("Entry skipped, position already open")
		return false
	}

	allocated := c.Size * l.portfolioValue
	if allocated > l.availableCapital {
		l.log.Warn().
			Str("symbol", c.Signal.Symbol).
			Float64("required", allocated).
			Float64("available", l.availableCapital).
			Msg("Entry skipped, insufficient capital")
		return false
	}

	pos := &Position{
		ID:          uuid.New().String(),
		Symbol:      c.Signal.Symbol,
		Direction:   c.Signal.Direction,
		Size:        c.Size,
		Allocated:   allocated,
		EntryPrice:  c.Price,
		EntryTime:   at,
		StopLoss:    c.Signal.StopLoss,
		TargetPrice: c.Signal.TargetPrice,
		Regime:      c.Regime,
		Sector:      c.Sector,
		Status:      StatusOpen,
	}

	l.availableCapital -= allocated
	l.open[pos.Symbol] = pos
	l.record(TradeRecord{
		ID:         uuid.New().String(),
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Side:       SideEntry,
		Direction:  pos.Direction,
		Price:      pos.EntryPrice,
		Size:       pos.Size,
		Allocated:  pos.Allocated,
		ExecutedAt: at,
		Regime:     pos.Regime,
		Sector:     pos.Sector,
	})

	l.log.Info().
		Str("symbol", pos.Symbol).
		Str("direction", string(pos.Direction)).
		Float64("size", pos.Size).
		Float64("entry_price", pos.EntryPrice).
		Str("regime", string(pos.Regime)).
		Msg("Position opened")
	return true
}

// ExecuteExits closes the open positions for symbols that received an exit
// signal this cycle. Unknown symbols are logged no-ops.
func (l *Ledger) ExecuteExits(symbols []string, prices map[string]float64, at time.Time) int {
	closed := 0
	for _, symbol := range symbols {
		pos, ok := l.open[symbol]
		if !ok {
			l.log.Warn().
				Str("symbol", symbol).
				Msg("Exit signal for unknown position, ignored")
			continue
		}
		price, ok := prices[symbol]
		if !ok || price <= 0 {
			l.log.Warn().
				Str("symbol", symbol).
				Msg("Exit skipped, no current price")
			continue
		}
		l.closePosition(pos, price, at, ExitSignal)
		closed++
	}
	return closed
}

// CheckPositions sweeps every open position for stop-loss and take-profit
// hits at the given prices. It runs before signal exits each cycle so a
// position cannot be closed twice in one cycle.
func (l *Ledger) CheckPositions(prices map[string]float64, at time.Time) int {
	// Deterministic sweep order for reproducible backtests.
	symbols := make([]string, 0, len(l.open))
	for symbol := range l.open {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	closed := 0
	for _, symbol := range symbols {
		pos := l.open[symbol]
		price, ok := prices[symbol]
		if !ok || price <= 0 {
			continue
		}
		if reason, hit := pos.thresholdHit(price); hit {
			l.closePosition(pos, price, at, reason)
			closed++
		}
	}
	return closed
}

// thresholdHit reports whether price crosses the position's stop-loss or
// take-profit level, with direction-aware comparisons.
func (p *Position) thresholdHit(price float64) (ExitReason, bool) {
	sign := p.Direction.Sign()
	if p.StopLoss != nil && sign*(price-*p.StopLoss) <= 0 {
		return ExitStopLoss, true
	}
	if p.TargetPrice != nil && sign*(price-*p.TargetPrice) >= 0 {
		return ExitTakeProfit, true
	}
	return "", false
}

func (l *Ledger) closePosition(pos *Position, price float64, at time.Time, reason ExitReason) {
	pnl := pos.UnrealizedPnL(price)

	pos.Status = StatusClosed
	pos.ExitPrice = price
	pos.ExitTime = at
	pos.ExitReason = reason
	pos.RealizedPnL = pnl

	l.availableCapital += pos.Allocated + pnl
	if l.availableCapital < 0 {
		// A stop gapping far through the entry can overdraw the account in
		// simulation; floor at zero to keep the books sane.
		l.log.Warn().
			Str("symbol", pos.Symbol).
			Float64("pnl", pnl).
			Msg("Realized loss exceeded allocation, capital floored at zero")
		l.availableCapital = 0
	}
	delete(l.open, pos.Symbol)
	l.closed = append(l.closed, *pos)

	l.record(TradeRecord{
		ID:         uuid.New().String(),
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Side:       SideExit,
		Direction:  pos.Direction,
		Price:      price,
		Size:       pos.Size,
		Allocated:  pos.Allocated,
		ExecutedAt: at,
		Regime:     pos.Regime,
		Sector:     pos.Sector,
		ExitReason: reason,
		PnL:        pnl,
	})

	l.log.Info().
		Str("symbol", pos.Symbol).
		Str("reason", string(reason)).
		Float64("exit_price", price).
		Float64("pnl", pnl).
		Msg("Position closed")
}

// Revalue recomputes portfolio value as available capital plus the
// mark-to-market value of every open position. Calling it twice with the
// same prices yields the same value.
func (l *Ledger) Revalue(prices map[string]float64) float64 {
	value := l.availableCapital
	for symbol, pos := range l.open {
		price, ok := prices[symbol]
		if !ok || price <= 0 {
			// No fresh mark, carry the position at its allocation.
			value += pos.Allocated
			continue
		}
		value += pos.MarketValue(price)
	}
	l.portfolioValue = value
	return value
}

func (l *Ledger) record(rec TradeRecord) {
	l.trades = append(l.trades, rec)
	if l.repo == nil {
		return
	}
	if err := l.repo.Create(rec); err != nil {
		l.log.Error().Err(err).
			Str("symbol", rec.Symbol).
			Str("side", string(rec.Side)).
			Msg("Failed to persist trade record")
	}
}

// PortfolioValue returns the value computed by the most recent Revalue.
func (l *Ledger) PortfolioValue() float64 { return l.portfolioValue }

// AvailableCapital returns the uncommitted capital.
func (l *Ledger) AvailableCapital() float64 { return l.availableCapital }

// OpenCount returns the number of open positions.
func (l *Ledger) OpenCount() int { return len(l.open) }

// OpenPosition returns the open position for a symbol, if any.
func (l *Ledger) OpenPosition(symbol string) (Position, bool) {
	pos, ok := l.open[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// OpenPositions returns copies of all open positions, sorted by symbol.
func (l *Ledger) OpenPositions() []Position {
	out := make([]Position, 0, len(l.open))
	for _, pos := range l.open {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// ClosedPositions returns every closed position in close order.
func (l *Ledger) ClosedPositions() []Position {
	out := make([]Position, len(l.closed))
	copy(out, l.closed)
	return out
}

// Trades returns the full trade record stream in execution order.
func (l *Ledger) Trades() []TradeRecord {
	out := make([]TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}

// SectorExposure returns, per sector, the fraction of portfolio value
// currently allocated to open positions in that sector.
func (l *Ledger) SectorExposure() map[string]float64 {
	exposure := make(map[string]float64)
	if l.portfolioValue <= 0 {
		return exposure
	}
	for _, pos := range l.open {
		if pos.Sector == "" {
			continue
		}
		exposure[pos.Sector] += pos.Allocated / l.portfolioValue
	}
	return exposure
}
