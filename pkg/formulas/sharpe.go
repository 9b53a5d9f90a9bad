package formulas

import (
	"math"
)

// SharpeRatio calculates the annualized Sharpe Ratio from periodic returns
//
// Sharpe Ratio Formula:
//
//	Sharpe = (Mean Return - Risk-free Rate) / Standard Deviation of Returns
//	Annualized: Sharpe × sqrt(periods per year)
//
// Returns 0 when there is insufficient data or zero volatility.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return 0
	}

	stdDev := StdDev(returns)
	if stdDev == 0 {
		return 0
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sharpe := (Mean(returns) - periodicRiskFree) / stdDev

	return sharpe * math.Sqrt(float64(periodsPerYear))
}

// AnnualizedReturn compounds the total return over the sample count into a
// yearly rate, expressed as a percentage.
//
//	Annualized = ((1 + total/100) ^ (365 / samples) - 1) × 100
func AnnualizedReturn(totalReturnPct float64, samples int) float64 {
	if samples <= 0 {
		return 0
	}
	return (math.Pow(1+totalReturnPct/100, 365/float64(samples)) - 1) * 100
}
