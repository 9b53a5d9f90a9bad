// Package indicators derives the technical indicator set for one bar series.
// A Set is computed once per (symbol, timeframe, cycle), never mutated after
// construction, and passed by reference to every consumer.
package indicators

import (
	"fmt"

	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/pkg/formulas"
)

// Fixed indicator periods. Only the trend MAs adapt to the market regime;
// the oscillators use their conventional settings.
const (
	rsiPeriod      = 14
	macdFast       = 12
	macdSlow       = 26
	macdSignal     = 9
	bollingerLen   = 20
	bollingerStdev = 2.0
	atrPeriod      = 14
	adxPeriod      = 14
	volumeSMALen   = 20
	longMALen      = 200
)

// Config holds the regime-dependent moving average lengths
type Config struct {
	FastMA   int
	MediumMA int
	SlowMA   int
}

// Set is the full indicator set for one (symbol, timeframe) series.
// All slices have the same length as the source series; positions before an
// indicator's warmup period hold zero.
type Set struct {
	Symbol    string
	Timeframe domain.Timeframe

	MAFast   []float64
	MAMedium []float64
	MASlow   []float64
	MALong   []float64 // 200-period MA

	RSI  []float64
	MACD formulas.MACDSeries

	Bollinger formulas.BollingerSeries

	ATR     []float64
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64

	// VolumeRatio is volume divided by its rolling 20-period mean
	VolumeRatio []float64
}

// Point is the indicator values at one bar index
type Point struct {
	MAFast      float64
	MAMedium    float64
	MASlow      float64
	MALong      float64
	RSI         float64
	MACDHist    float64
	ATR         float64
	ADX         float64
	PlusDI      float64
	MinusDI     float64
	VolumeRatio float64
}

// Compute derives the indicator set from a bar series.
// Returns an error only for malformed input; short series compute fine, with
// zeroed warmup positions (consumers gate on bar count).
func Compute(series domain.BarSeries, cfg Config) (*Set, error) {
	if cfg.FastMA <= 0 || cfg.MediumMA <= 0 || cfg.SlowMA <= 0 {
		return nil, fmt.Errorf("invalid MA config %d/%d/%d for %s", cfg.FastMA, cfg.MediumMA, cfg.SlowMA, series.Symbol)
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()

	set := &Set{
		Symbol:    series.Symbol,
		Timeframe: series.Timeframe,
		MAFast:    formulas.SMA(closes, cfg.FastMA),
		MAMedium:  formulas.SMA(closes, cfg.MediumMA),
		MASlow:    formulas.SMA(closes, cfg.SlowMA),
		MALong:    formulas.SMA(closes, longMALen),
		RSI:       formulas.RSI(closes, rsiPeriod),
		MACD:      formulas.MACD(closes, macdFast, macdSlow, macdSignal),
		Bollinger: formulas.Bollinger(closes, bollingerLen, bollingerStdev),
		ATR:       formulas.ATR(highs, lows, closes, atrPeriod),
		ADX:       formulas.ADX(highs, lows, closes, adxPeriod),
		PlusDI:    formulas.PlusDI(highs, lows, closes, adxPeriod),
		MinusDI:   formulas.MinusDI(highs, lows, closes, adxPeriod),
	}

	set.VolumeRatio = volumeRatio(volumes)

	return set, nil
}

// volumeRatio divides each volume by its rolling mean
func volumeRatio(volumes []float64) []float64 {
	sma := formulas.SMA(volumes, volumeSMALen)
	out := make([]float64, len(volumes))
	for i := range volumes {
		if sma[i] > 0 {
			out[i] = volumes[i] / sma[i]
		}
	}
	return out
}

// Len returns the number of bars the set covers
func (s *Set) Len() int {
	return len(s.MAFast)
}

// At returns the indicator values at bar index i
func (s *Set) At(i int) Point {
	if i < 0 || i >= s.Len() {
		return Point{}
	}
	return Point{
		MAFast:      s.MAFast[i],
		MAMedium:    s.MAMedium[i],
		MASlow:      s.MASlow[i],
		MALong:      s.MALong[i],
		RSI:         s.RSI[i],
		MACDHist:    s.MACD.Histogram[i],
		ATR:         s.ATR[i],
		ADX:         s.ADX[i],
		PlusDI:      s.PlusDI[i],
		MinusDI:     s.MinusDI[i],
		VolumeRatio: s.VolumeRatio[i],
	}
}

// Latest returns the indicator values at the most recent bar
func (s *Set) Latest() Point {
	return s.At(s.Len() - 1)
}

// Previous returns the indicator values at the second most recent bar
func (s *Set) Previous() Point {
	return s.At(s.Len() - 2)
}
