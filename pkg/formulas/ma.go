package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA calculates the Simple Moving Average series.
// The returned slice has the same length as the input; positions before the
// warmup period hold zero.
func SMA(closes []float64, length int) []float64 {
	if length <= 0 || len(closes) < length {
		return make([]float64, len(closes))
	}
	return talib.Sma(closes, length)
}

// EMA calculates the Exponential Moving Average series
//
// EMA Formula:
//
//	EMA_today = (Price_today × multiplier) + (EMA_yesterday × (1 - multiplier))
//	where multiplier = 2 / (period + 1)
func EMA(closes []float64, length int) []float64 {
	if length <= 0 || len(closes) < length {
		return make([]float64, len(closes))
	}
	return talib.Ema(closes, length)
}

// LastSMA returns the most recent SMA value, or nil if there is not enough data
func LastSMA(closes []float64, length int) *float64 {
	if len(closes) < length {
		return nil
	}

	sma := SMA(closes, length)
	if len(sma) == 0 || isNaN(sma[len(sma)-1]) {
		return nil
	}

	result := sma[len(sma)-1]
	return &result
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
