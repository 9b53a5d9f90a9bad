// Package signals combines per-timeframe indicator states into one
// directional signal per symbol, gated by multi-timeframe alignment.
package signals

import (
	"math"

	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/internal/modules/indicators"
	"github.com/rs/zerolog"
)

const (
	// minBars is the minimum series length for a timeframe to cast a vote
	minBars = 50

	// alignmentGate is the |alignment| a new entry must clear
	alignmentGate = 0.3

	// defaultWeight applies to timeframes without an explicit weight
	defaultWeight = 0.25

	// defaultVolatilityIndex stands in for the volatility index when no
	// macro series is available (a calm-market VIX level)
	defaultVolatilityIndex = 15.0
)

// timeframeWeights sum to 1 across the configured timeframes; the 4h chart
// carries the most weight, the 15m chart the least
var timeframeWeights = map[domain.Timeframe]float64{
	domain.Timeframe15m: 0.1,
	domain.Timeframe1h:  0.3,
	domain.Timeframe4h:  0.4,
	domain.Timeframe1d:  0.2,
}

// Engine evaluates multi-timeframe signals. Stateless per cycle.
type Engine struct {
	log     zerolog.Logger
	primary domain.Timeframe
}

// NewEngine creates a new signal engine.
// The 1h chart is the primary decision timeframe by convention.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		log:     log.With().Str("component", "signal_engine").Logger(),
		primary: domain.Timeframe1h,
	}
}

// Evaluate produces the signal for one symbol.
// Missing timeframe data degrades the alignment vote rather than failing;
// a symbol with no usable primary-timeframe data yields a no-trade signal.
func (e *Engine) Evaluate(in Input) Signal {
	signal := NoTrade(in.Symbol, in.At)

	alignment := e.alignmentScore(in)
	signal.TimeframeAlignment = alignment * 100

	primary, ok := in.Timeframes[e.primary]
	if !ok || primary.Indicators == nil || primary.Series.Len() < minBars {
		e.log.Debug().
			Str("symbol", in.Symbol).
			Msg("No usable primary timeframe data, no trade")
		return signal
	}

	latest := primary.Indicators.Latest()
	prev := primary.Indicators.Previous()
	lastClose := primary.Series.Latest().Close

	crossedUp := latest.MAFast > latest.MAMedium && prev.MAFast <= prev.MAMedium
	crossedDown := latest.MAFast < latest.MAMedium && prev.MAFast >= prev.MAMedium
	trending := latest.ADX > in.Profile.TrendStrengthThreshold
	volumeConfirmed := latest.VolumeRatio > in.Profile.VolumeThreshold

	// The 200-period MA is zero during warmup; no entry can clear it until
	// the series is long enough for it to exist
	bullishEntry := crossedUp &&
		latest.MALong > 0 && lastClose > latest.MALong &&
		trending &&
		volumeConfirmed &&
		latest.MACDHist > 0 && prev.MACDHist <= 0 &&
		latest.RSI < in.Profile.RSIOverbought &&
		alignment > alignmentGate

	bearishEntry := crossedDown &&
		latest.MALong > 0 && lastClose < latest.MALong &&
		trending &&
		volumeConfirmed &&
		latest.MACDHist < 0 && prev.MACDHist >= 0 &&
		latest.RSI > in.Profile.RSIOversold &&
		alignment < -alignmentGate

	switch {
	case bullishEntry:
		signal.Entry = true
		signal.Direction = domain.DirectionLong
		signal.Strength = math.Min(alignment*100, 100)
		target := lastClose + latest.ATR*in.Profile.ProfitTargetMultiplier
		stop := lastClose - latest.ATR*in.Profile.StopLossMultiplier
		signal.TargetPrice = &target
		signal.StopLoss = &stop

	case bearishEntry:
		signal.Entry = true
		signal.Direction = domain.DirectionShort
		signal.Strength = math.Min(math.Abs(alignment)*100, 100)
		target := lastClose - latest.ATR*in.Profile.ProfitTargetMultiplier
		stop := lastClose + latest.ATR*in.Profile.StopLossMultiplier
		signal.TargetPrice = &target
		signal.StopLoss = &stop
	}

	// Exit rule for an open position is a plain opposite crossover on the
	// primary timeframe, deliberately looser than the entry gate
	switch in.OpenDirection {
	case domain.DirectionLong:
		signal.Exit = crossedDown
	case domain.DirectionShort:
		signal.Exit = crossedUp
	}

	signal.RiskScore = e.riskScore(latest, in.VolatilityIndex)

	if signal.Entry || signal.Exit {
		e.log.Debug().
			Str("symbol", in.Symbol).
			Bool("entry", signal.Entry).
			Bool("exit", signal.Exit).
			Str("direction", string(signal.Direction)).
			Float64("strength", signal.Strength).
			Float64("risk_score", signal.RiskScore).
			Float64("alignment", signal.TimeframeAlignment).
			Msg("Signal generated")
	}

	return signal
}

// alignmentScore sums the weighted directional votes across timeframes.
// Each usable timeframe votes +weight (bullish pattern), -weight (bearish
// pattern), or 0; missing timeframes simply cast no vote.
func (e *Engine) alignmentScore(in Input) float64 {
	score := 0.0

	for timeframe, data := range in.Timeframes {
		if data.Indicators == nil || data.Series.Len() < minBars {
			continue
		}

		weight, ok := timeframeWeights[timeframe]
		if !ok {
			weight = defaultWeight
		}

		latest := data.Indicators.Latest()
		prev := data.Indicators.Previous()

		bullish := latest.MAFast > latest.MAMedium &&
			prev.MAFast <= prev.MAMedium &&
			latest.ADX > in.Profile.TrendStrengthThreshold &&
			latest.VolumeRatio > in.Profile.VolumeThreshold &&
			latest.RSI < in.Profile.RSIOverbought

		bearish := latest.MAFast < latest.MAMedium &&
			prev.MAFast >= prev.MAMedium &&
			latest.ADX > in.Profile.TrendStrengthThreshold &&
			latest.VolumeRatio > in.Profile.VolumeThreshold &&
			latest.RSI > in.Profile.RSIOversold

		switch {
		case bullish:
			score += weight
		case bearish:
			score -= weight
		}
	}

	return score
}

// riskScore composes a 0-100 risk measure; lower is safer.
// Components: market volatility (volatility index normalized to 100), trend
// weakness (inverse of ADX normalized to 100), and momentum stretch (RSI
// distance from the 50 midline).
func (e *Engine) riskScore(latest indicators.Point, volatilityIndex *float64) float64 {
	vix := defaultVolatilityIndex
	if volatilityIndex != nil {
		vix = *volatilityIndex
	}

	volatilityRisk := math.Min(vix/50*100, 100)
	trendStrength := math.Min(latest.ADX*2, 100)
	momentumRisk := math.Abs(latest.RSI-50) / 50 * 100

	return volatilityRisk*0.4 + (100-trendStrength)*0.4 + momentumRisk*0.2
}

// Primary returns the primary decision timeframe
func (e *Engine) Primary() domain.Timeframe {
	return e.primary
}
