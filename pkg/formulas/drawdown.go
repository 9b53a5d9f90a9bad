package formulas

// MaxDrawdown calculates the maximum drawdown from a value series
//
// Drawdown Formula:
//
//	Drawdown = (Peak Value - Current Value) / Peak Value
//	Max Drawdown = Maximum of all drawdowns
//
// Returns the maximum drawdown as a positive fraction (0.25 = 25% loss from peak).
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	maxDrawdown := 0.0
	peak := values[0]

	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			drawdown := (peak - v) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

// MaxDrawdownFromReturns calculates the maximum drawdown on the
// cumulative-return curve built from a series of periodic returns.
func MaxDrawdownFromReturns(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cumulative := make([]float64, len(returns)+1)
	cumulative[0] = 1.0
	for i, r := range returns {
		cumulative[i+1] = cumulative[i] * (1 + r)
	}

	return MaxDrawdown(cumulative)
}
