// Package regime classifies overall market state from the index series and
// selects the strategy parameter profile for the cycle.
package regime

import (
	"github.com/aristath/helmsman/internal/modules/indicators"
	"github.com/rs/zerolog"
)

// adxStrongTrend is the ADX level above which the index trend counts as strong
const adxStrongTrend = 25.0

// Detector classifies the market regime from daily index indicators.
// It caches the last successful detection and falls back to it (or ranging)
// when the index series is unavailable; detection failure is never fatal.
type Detector struct {
	log  zerolog.Logger
	last Regime
}

// NewDetector creates a new regime detector
func NewDetector(log zerolog.Logger) *Detector {
	return &Detector{
		log:  log.With().Str("component", "regime_detector").Logger(),
		last: RegimeUnknown,
	}
}

// Detect classifies the regime from the index indicator set and close prices.
// Pass nil when the index series is unavailable; the detector then returns
// the previously cached regime, or ranging if it never had one.
func (d *Detector) Detect(index *indicators.Set, closes []float64) Regime {
	if index == nil || index.Len() == 0 || len(closes) == 0 {
		fallback := d.last
		if fallback == RegimeUnknown {
			fallback = RegimeRanging
		}
		d.log.Warn().
			Str("fallback", string(fallback)).
			Msg("No index data for regime detection, using fallback")
		return fallback
	}

	latest := index.Latest()
	lastClose := closes[len(closes)-1]

	trendUp := latest.MAFast > latest.MASlow
	aboveLongMA := latest.MALong > 0 && lastClose > latest.MALong
	strongTrend := latest.ADX > adxStrongTrend

	var regime Regime
	switch {
	case trendUp && aboveLongMA && strongTrend:
		regime = RegimeBullish
	case !trendUp && !aboveLongMA && strongTrend:
		regime = RegimeBearish
	default:
		regime = RegimeRanging
	}

	d.last = regime

	d.log.Info().
		Bool("trend_up", trendUp).
		Bool("above_long_ma", aboveLongMA).
		Bool("strong_trend", strongTrend).
		Str("regime", string(regime)).
		Msg("Market regime detected")

	return regime
}

// Last returns the most recent detection result (unknown before the first run)
func (d *Detector) Last() Regime {
	return d.last
}
