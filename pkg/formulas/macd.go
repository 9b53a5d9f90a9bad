package formulas

import (
	"github.com/markcheno/go-talib"
)

// MACDSeries holds the three MACD output series (same length as the input)
type MACDSeries struct {
	Line      []float64 `json:"line"`
	Signal    []float64 `json:"signal"`
	Histogram []float64 `json:"histogram"`
}

// MACD calculates the Moving Average Convergence Divergence series
//
// MACD Formula:
//
//	MACD Line = EMA(fast) - EMA(slow)
//	Signal Line = EMA(MACD Line, signal period)
//	Histogram = MACD Line - Signal Line
//
// Standard parameters are fast=12, slow=26, signal=9.
func MACD(closes []float64, fast, slow, signal int) MACDSeries {
	if len(closes) < slow+signal {
		return MACDSeries{
			Line:      make([]float64, len(closes)),
			Signal:    make([]float64, len(closes)),
			Histogram: make([]float64, len(closes)),
		}
	}

	line, sig, hist := talib.Macd(closes, fast, slow, signal)
	return MACDSeries{Line: line, Signal: sig, Histogram: hist}
}
