package signals

import (
	"time"

	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/internal/modules/indicators"
	"github.com/aristath/helmsman/internal/modules/regime"
)

// Signal is the directional decision for one symbol at one evaluation time.
// Created fresh each cycle and never mutated afterwards; PositionSize is the
// one field filled in later, by the position sizer.
type Signal struct {
	Symbol      string           `json:"symbol"`
	GeneratedAt time.Time        `json:"generated_at"`
	Entry       bool             `json:"entry"`
	Exit        bool             `json:"exit"`
	Direction   domain.Direction `json:"direction"`

	// Strength is 0-100; RiskScore is 0-100 with lower meaning safer;
	// TimeframeAlignment is -100..100
	Strength           float64 `json:"strength"`
	RiskScore          float64 `json:"risk_score"`
	TimeframeAlignment float64 `json:"timeframe_alignment"`

	TargetPrice *float64 `json:"target_price,omitempty"`
	StopLoss    *float64 `json:"stop_loss,omitempty"`

	// PositionSize is a fraction of portfolio value, set by the sizer
	PositionSize float64 `json:"position_size"`
}

// NoTrade returns a neutral signal for a symbol.
// Missing data produces this value rather than an error.
func NoTrade(symbol string, at time.Time) Signal {
	return Signal{
		Symbol:      symbol,
		GeneratedAt: at,
		Direction:   domain.DirectionNone,
	}
}

// TimeframeData bundles the bar series and its computed indicator set for
// one timeframe
type TimeframeData struct {
	Series     domain.BarSeries
	Indicators *indicators.Set
}

// Input is everything the engine needs to evaluate one symbol
type Input struct {
	Symbol     string
	At         time.Time
	Timeframes map[domain.Timeframe]TimeframeData
	Profile    regime.Profile

	// OpenDirection is the direction of an already-open position for the
	// symbol, or DirectionNone. Exit evaluation only applies to open positions.
	OpenDirection domain.Direction

	// VolatilityIndex is the latest volatility index close (e.g., VIX),
	// used in the risk score. Nil falls back to a calm-market default.
	VolatilityIndex *float64
}
