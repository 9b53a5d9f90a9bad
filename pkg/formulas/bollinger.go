package formulas

import (
	"github.com/markcheno/go-talib"
)

// BollingerSeries holds the three Bollinger Band series (same length as the input)
type BollingerSeries struct {
	Upper  []float64 `json:"upper"`
	Middle []float64 `json:"middle"`
	Lower  []float64 `json:"lower"`
}

// Bollinger calculates Bollinger Bands
//
// Bollinger Bands Formula:
//
//	Middle Band = N-period SMA
//	Upper Band = Middle + (multiplier × std deviation)
//	Lower Band = Middle - (multiplier × std deviation)
//
// Args:
//
//	closes: Array of closing prices
//	length: Period for moving average (typically 20)
//	stdDevMultiplier: Standard deviation multiplier (typically 2)
func Bollinger(closes []float64, length int, stdDevMultiplier float64) BollingerSeries {
	if len(closes) < length {
		return BollingerSeries{
			Upper:  make([]float64, len(closes)),
			Middle: make([]float64, len(closes)),
			Lower:  make([]float64, len(closes)),
		}
	}

	// MAType 0 = SMA (Simple Moving Average)
	upper, middle, lower := talib.BBands(closes, length, stdDevMultiplier, stdDevMultiplier, 0)
	return BollingerSeries{Upper: upper, Middle: middle, Lower: lower}
}
