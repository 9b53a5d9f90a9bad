package regime

// Regime is the coarse market-state classification driving parameter selection
type Regime string

const (
	RegimeBullish Regime = "bullish"
	RegimeBearish Regime = "bearish"
	RegimeRanging Regime = "ranging"
	// RegimeUnknown means detection has not run or had no data to work with.
	// Downstream components treat it like ranging.
	RegimeUnknown Regime = "unknown"
)

// Profile is an immutable strategy parameter tuple selected per regime.
// All symbols in a cycle share the active profile.
type Profile struct {
	FastMA                 int     `json:"fast_ma"`
	MediumMA               int     `json:"medium_ma"`
	SlowMA                 int     `json:"slow_ma"`
	TrendStrengthThreshold float64 `json:"trend_strength_threshold"` // minimum ADX
	ProfitTargetMultiplier float64 `json:"profit_target_multiplier"` // × ATR
	StopLossMultiplier     float64 `json:"stoploss_multiplier"`      // × ATR
	VolumeThreshold        float64 `json:"volume_threshold"`         // minimum volume ratio
	RSIOversold            float64 `json:"rsi_oversold"`
	RSIOverbought          float64 `json:"rsi_overbought"`
}

// profiles holds the per-regime parameter tuples
var profiles = map[Regime]Profile{
	RegimeBullish: {
		FastMA:                 8,
		MediumMA:               21,
		SlowMA:                 50,
		TrendStrengthThreshold: 25,
		ProfitTargetMultiplier: 2.5,
		StopLossMultiplier:     1.0,
		VolumeThreshold:        1.5,
		RSIOversold:            40,
		RSIOverbought:          70,
	},
	RegimeBearish: {
		FastMA:                 5,
		MediumMA:               15,
		SlowMA:                 35,
		TrendStrengthThreshold: 35,
		ProfitTargetMultiplier: 1.5,
		StopLossMultiplier:     0.8,
		VolumeThreshold:        2.0,
		RSIOversold:            30,
		RSIOverbought:          60,
	},
	RegimeRanging: {
		FastMA:                 5,
		MediumMA:               13,
		SlowMA:                 30,
		TrendStrengthThreshold: 20,
		ProfitTargetMultiplier: 1.2,
		StopLossMultiplier:     0.7,
		VolumeThreshold:        1.8,
		RSIOversold:            35,
		RSIOverbought:          65,
	},
}

// ProfileFor returns the parameter profile for a regime.
// Unknown regimes fall back to the ranging profile so the engine can keep
// running when detection has no data.
func ProfileFor(r Regime) Profile {
	if p, ok := profiles[r]; ok {
		return p
	}
	return profiles[RegimeRanging]
}
