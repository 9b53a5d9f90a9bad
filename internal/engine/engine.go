// Package engine drives the evaluation cycle: market data in, regime and
// sector context, per-symbol signals, sizing, and ledger execution. One
// Engine owns one ledger and must only ever run one cycle at a time.
package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/helmsman/internal/config"
	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/internal/marketdata"
	"github.com/aristath/helmsman/internal/modules/indicators"
	"github.com/aristath/helmsman/internal/modules/ledger"
	"github.com/aristath/helmsman/internal/modules/performance"
	"github.com/aristath/helmsman/internal/modules/regime"
	"github.com/aristath/helmsman/internal/modules/risk"
	"github.com/aristath/helmsman/internal/modules/sectors"
	"github.com/aristath/helmsman/internal/modules/signals"
)

// Engine wires the strategy modules around a single portfolio ledger.
type Engine struct {
	log      zerolog.Logger
	cfg      config.StrategyConfig
	data     marketdata.Provider
	detector *regime.Detector
	rotation *sectors.Analyzer
	signals  *signals.Engine
	sizer    *risk.Sizer
	ledger   *ledger.Ledger
	perf     *performance.Calculator

	history []performance.Sample
}

// New creates an engine with a fresh ledger holding the configured initial
// capital. Pass a nil repository to keep trade records in memory only.
func New(cfg config.StrategyConfig, data marketdata.Provider, repo ledger.TradeWriter, log zerolog.Logger) *Engine {
	return &Engine{
		log:      log.With().Str("component", "engine").Logger(),
		cfg:      cfg,
		data:     data,
		detector: regime.NewDetector(log),
		rotation: sectors.NewAnalyzer(log),
		signals:  signals.NewEngine(log),
		sizer: risk.NewSizer(risk.Config{
			Log:                 log,
			RiskPerTrade:        cfg.RiskPerTrade,
			SectorExposureLimit: cfg.SectorExposureLimit,
		}),
		ledger: ledger.New(ledger.Config{
			Log:              log,
			InitialCapital:   cfg.InitialCapital,
			MaxOpenPositions: cfg.MaxOpenPositions,
			Repository:       repo,
		}),
		perf: performance.NewCalculator(log),
	}
}

// Ledger exposes the engine's portfolio ledger for read-only inspection
// between cycles.
func (e *Engine) Ledger() *ledger.Ledger { return e.ledger }

// History returns the portfolio-history samples collected so far.
func (e *Engine) History() []performance.Sample {
	out := make([]performance.Sample, len(e.history))
	copy(out, e.history)
	return out
}

// symbolResult pairs a symbol's signal with its latest primary-timeframe
// close, which doubles as the execution price in simulation.
type symbolResult struct {
	signal signals.Signal
	price  float64
	sector string
}

// cycle runs one full evaluation pass at the given time. A zero cutoff
// means "all available data" (live mode); backtests pass the slice date to
// keep future bars out of view.
func (e *Engine) cycle(at time.Time, cutoff time.Time) {
	currentRegime, profile := e.detectRegime(cutoff)
	sectorScores := e.sectorScores(cutoff)
	volIdx := e.volatilityIndex(cutoff)

	results := e.evaluateSymbols(at, cutoff, profile, volIdx)

	prices := make(map[string]float64, len(results))
	for symbol, r := range results {
		if r.price > 0 {
			prices[symbol] = r.price
		}
	}

	// Sizing happens against the pre-execution portfolio snapshot; the
	// ledger re-checks funding when entries actually execute.
	exposure := e.ledger.SectorExposure()
	var exits []string
	var candidates []ledger.Candidate
	for _, symbol := range sortedSymbols(results) {
		r := results[symbol]
		if r.signal.Exit {
			exits = append(exits, symbol)
		}
		if !r.signal.Entry {
			continue
		}
		size := e.sizer.Size(r.signal, risk.Context{
			PortfolioValue:   e.ledger.PortfolioValue(),
			AvailableCapital: e.ledger.AvailableCapital(),
			CurrentPrice:     r.price,
			SectorExposure:   exposure[r.sector],
		})
		if size <= 0 {
			continue
		}
		r.signal.PositionSize = size
		candidates = append(candidates, ledger.Candidate{
			Signal: r.signal,
			Size:   size,
			Price:  r.price,
			Sector: r.sector,
			Regime: currentRegime,
		})
	}

	stopped := e.ledger.CheckPositions(prices, at)
	closed := e.ledger.ExecuteExits(exits, prices, at)
	opened := e.ledger.ExecuteEntries(candidates, at)
	value := e.ledger.Revalue(prices)

	e.history = append(e.history, performance.Sample{
		Date:          at,
		Value:         value,
		OpenPositions: e.ledger.OpenCount(),
	})

	e.log.Info().
		Time("at", at).
		Str("regime", string(currentRegime)).
		Int("signals", len(results)).
		Int("stopped", stopped).
		Int("closed", closed).
		Int("opened", opened).
		Float64("portfolio_value", value).
		Int("sectors_scored", len(sectorScores)).
		Msg("Cycle complete")
}

// detectRegime classifies the market from the index series and returns the
// active parameter profile. Index indicators are computed with the previous
// cycle's profile so detection parameters stay stable within a cycle.
func (e *Engine) detectRegime(cutoff time.Time) (regime.Regime, regime.Profile) {
	prior := regime.ProfileFor(e.detector.Last())

	index, ok := e.data.Bars(e.cfg.IndexSymbol, domain.Timeframe1d)
	if !ok {
		current := e.detector.Detect(nil, nil)
		return current, regime.ProfileFor(current)
	}
	index = slice(index, cutoff)

	set, err := indicators.Compute(index, indicators.Config{
		FastMA:   prior.FastMA,
		MediumMA: prior.MediumMA,
		SlowMA:   prior.SlowMA,
	})
	if err != nil {
		e.log.Warn().Err(err).
			Str("index", e.cfg.IndexSymbol).
			Msg("Index indicator computation failed")
		current := e.detector.Detect(nil, nil)
		return current, regime.ProfileFor(current)
	}

	current := e.detector.Detect(set, index.Closes())
	return current, regime.ProfileFor(current)
}

// sectorScores runs the rotation analyzer over every known sector series.
func (e *Engine) sectorScores(cutoff time.Time) map[string]float64 {
	names := e.data.Sectors()
	if len(names) == 0 {
		return nil
	}

	sectorBars := make(map[string]domain.BarSeries, len(names))
	for _, name := range names {
		series, ok := e.data.SectorBars(name)
		if !ok {
			continue
		}
		sectorBars[name] = slice(series, cutoff)
	}

	index, ok := e.data.Bars(e.cfg.IndexSymbol, domain.Timeframe1d)
	if !ok {
		index = domain.BarSeries{}
	}
	return e.rotation.Scores(sectorBars, slice(index, cutoff))
}

// volatilityIndex returns the latest volatility index close, or nil when
// the macro series is unavailable.
func (e *Engine) volatilityIndex(cutoff time.Time) *float64 {
	series, ok := e.data.MacroBars(e.cfg.VolatilitySymbol)
	if !ok {
		return nil
	}
	series = slice(series, cutoff)
	latest := series.Latest()
	if latest == nil || latest.Close <= 0 {
		return nil
	}
	v := latest.Close
	return &v
}

// evaluateSymbols fans signal computation out across goroutines, one per
// symbol, and joins before anything touches the ledger. Each goroutine only
// reads shared data, so no locking beyond the join is needed.
func (e *Engine) evaluateSymbols(at time.Time, cutoff time.Time, profile regime.Profile, volIdx *float64) map[string]symbolResult {
	type indexed struct {
		symbol string
		result symbolResult
		ok     bool
	}

	out := make(chan indexed, len(e.cfg.Symbols))
	var wg sync.WaitGroup
	for _, symbol := range e.cfg.Symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			r, ok := e.evaluateSymbol(symbol, at, cutoff, profile, volIdx)
			out <- indexed{symbol: symbol, result: r, ok: ok}
		}(symbol)
	}
	wg.Wait()
	close(out)

	results := make(map[string]symbolResult)
	for item := range out {
		if item.ok {
			results[item.symbol] = item.result
		}
	}
	return results
}

// evaluateSymbol builds the multi-timeframe input for one symbol and runs
// the signal engine. Missing data skips the symbol for the cycle.
func (e *Engine) evaluateSymbol(symbol string, at time.Time, cutoff time.Time, profile regime.Profile, volIdx *float64) (symbolResult, bool) {
	cfg := indicators.Config{
		FastMA:   profile.FastMA,
		MediumMA: profile.MediumMA,
		SlowMA:   profile.SlowMA,
	}

	timeframes := make(map[domain.Timeframe]signals.TimeframeData, len(e.cfg.Timeframes))
	var primaryClose float64
	for _, tf := range e.cfg.Timeframes {
		series, ok := e.data.Bars(symbol, tf)
		if !ok {
			continue
		}
		series = slice(series, cutoff)
		if series.IsEmpty() {
			continue
		}
		set, err := indicators.Compute(series, cfg)
		if err != nil {
			e.log.Warn().Err(err).
				Str("symbol", symbol).
				Str("timeframe", string(tf)).
				Msg("Indicator computation failed")
			continue
		}
		timeframes[tf] = signals.TimeframeData{Series: series, Indicators: set}
		if tf == e.signals.Primary() {
			primaryClose = series.Latest().Close
		}
	}

	if len(timeframes) == 0 {
		e.log.Debug().Str("symbol", symbol).Msg("No data for symbol, skipped this cycle")
		return symbolResult{}, false
	}

	openDirection := domain.DirectionNone
	if pos, ok := e.ledger.OpenPosition(symbol); ok {
		openDirection = pos.Direction
	}

	signal := e.signals.Evaluate(signals.Input{
		Symbol:          symbol,
		At:              at,
		Timeframes:      timeframes,
		Profile:         profile,
		OpenDirection:   openDirection,
		VolatilityIndex: volIdx,
	})

	sector, _ := e.data.Sector(symbol)
	return symbolResult{signal: signal, price: primaryClose, sector: sector}, true
}

// slice applies the backtest cutoff; the zero time means live mode and
// leaves the series untouched.
func slice(series domain.BarSeries, cutoff time.Time) domain.BarSeries {
	if cutoff.IsZero() {
		return series
	}
	return series.Through(cutoff)
}

func sortedSymbols(results map[string]symbolResult) []string {
	symbols := make([]string, 0, len(results))
	for symbol := range results {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
