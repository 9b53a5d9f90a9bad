package formulas

import (
	"github.com/markcheno/go-talib"
)

// RSI calculates the Relative Strength Index series
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss over N periods
//
// Args:
//
//	closes: Array of closing prices
//	length: RSI period (typically 14)
func RSI(closes []float64, length int) []float64 {
	if length <= 0 || len(closes) < length+1 {
		return make([]float64, len(closes))
	}
	return talib.Rsi(closes, length)
}

// LastRSI returns the most recent RSI value, or nil if there is not enough data
func LastRSI(closes []float64, length int) *float64 {
	if len(closes) < length+1 {
		return nil
	}

	rsi := RSI(closes, length)
	if len(rsi) == 0 || isNaN(rsi[len(rsi)-1]) {
		return nil
	}

	result := rsi[len(rsi)-1]
	return &result
}
