// Package sectors scores sector strength from relative performance, trend,
// momentum, and volume behavior over a trailing window.
package sectors

import (
	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/pkg/formulas"
	"github.com/rs/zerolog"
)

const (
	// window is the trailing number of daily bars scored per sector
	window = 20
	// momentumPeriods is the lookback of the momentum return component
	momentumPeriods = 5
	adxPeriod       = 14
)

// Component weights of the composite strength score
const (
	weightRelativeStrength = 0.4
	weightTrendStrength    = 0.3
	weightMomentum         = 0.2
	weightVolumeTrend      = 0.1
)

// Analyzer computes sector rotation strength scores
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates a new sector rotation analyzer
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{
		log: log.With().Str("component", "sector_rotation").Logger(),
	}
}

// Scores maps each sector to a strength score in [0, 100].
// Sectors with insufficient data are omitted entirely; a missing sector
// means "unknown strength", not "weak". The index series is optional; without
// it relative strength defaults to 1.0.
func (a *Analyzer) Scores(sectorBars map[string]domain.BarSeries, index domain.BarSeries) map[string]float64 {
	scores := make(map[string]float64, len(sectorBars))

	// Mean daily index return over the window, for relative comparison
	indexMeanReturn := 0.0
	haveIndex := false
	if index.Len() > window {
		returns := formulas.Returns(index.Tail(window + 1).Closes())
		indexMeanReturn = formulas.Mean(returns)
		haveIndex = indexMeanReturn != 0
	}

	for sector, series := range sectorBars {
		if series.Len() <= window {
			a.log.Debug().
				Str("sector", sector).
				Int("bars", series.Len()).
				Msg("Insufficient data for sector score, omitting")
			continue
		}

		recent := series.Tail(window + 1)
		closes := recent.Closes()
		volumes := recent.Volumes()

		relativeStrength := 1.0
		if haveIndex {
			relativeStrength = formulas.Mean(formulas.Returns(closes)) / indexMeanReturn
		}

		// ADX needs its warmup, so it is computed over the full series and
		// only averaged over the window
		adx := formulas.ADX(series.Highs(), series.Lows(), series.Closes(), adxPeriod)
		trendStrength := formulas.Mean(tail(adx, window))
		momentum := formulas.Mean(formulas.PeriodReturns(closes, momentumPeriods)) * 100
		volumeTrend := formulas.Mean(formulas.Returns(volumes)) * 100

		score := weightRelativeStrength*relativeStrength*100 +
			weightTrendStrength*trendStrength +
			weightMomentum*momentum +
			weightVolumeTrend*volumeTrend

		scores[sector] = formulas.Clamp(score, 0, 100)
	}

	if sector, score, ok := Strongest(scores); ok {
		a.log.Info().
			Int("sectors", len(scores)).
			Str("strongest", sector).
			Float64("score", score).
			Msg("Sector rotation analysis complete")
	} else {
		a.log.Warn().Msg("No sector data available for rotation analysis")
	}

	return scores
}

func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

// Strongest returns the sector with the highest strength score
func Strongest(scores map[string]float64) (string, float64, bool) {
	best := ""
	bestScore := -1.0
	for sector, score := range scores {
		if score > bestScore || (score == bestScore && sector < best) {
			best = sector
			bestScore = score
		}
	}
	if best == "" {
		return "", 0, false
	}
	return best, bestScore, true
}
