package formulas

import (
	"github.com/markcheno/go-talib"
)

// ATR calculates the Average True Range series.
// ATR measures volatility as a smoothed average of the true range.
func ATR(highs, lows, closes []float64, length int) []float64 {
	if length <= 0 || len(closes) < length+1 || len(highs) != len(closes) || len(lows) != len(closes) {
		return make([]float64, len(closes))
	}
	return talib.Atr(highs, lows, closes, length)
}

// ADX calculates the Average Directional Index series.
// Values above ~25 indicate a strong trend regardless of direction.
func ADX(highs, lows, closes []float64, length int) []float64 {
	// ADX needs roughly two full periods of data before producing values
	if length <= 0 || len(closes) < 2*length || len(highs) != len(closes) || len(lows) != len(closes) {
		return make([]float64, len(closes))
	}
	return talib.Adx(highs, lows, closes, length)
}

// PlusDI calculates the Positive Directional Indicator series
func PlusDI(highs, lows, closes []float64, length int) []float64 {
	if length <= 0 || len(closes) < length+1 || len(highs) != len(closes) || len(lows) != len(closes) {
		return make([]float64, len(closes))
	}
	return talib.PlusDI(highs, lows, closes, length)
}

// MinusDI calculates the Negative Directional Indicator series
func MinusDI(highs, lows, closes []float64, length int) []float64 {
	if length <= 0 || len(closes) < length+1 || len(highs) != len(closes) || len(lows) != len(closes) {
		return make([]float64, len(closes))
	}
	return talib.MinusDI(highs, lows, closes, length)
}
