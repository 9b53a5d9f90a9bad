// Package risk converts entry signals into bounded position sizes honoring
// per-trade risk, sector exposure caps, and available capital.
package risk

import (
	"math"

	"github.com/aristath/helmsman/internal/modules/signals"
	"github.com/rs/zerolog"
)

// Sizer computes position sizes as fractions of portfolio value
type Sizer struct {
	log                 zerolog.Logger
	riskPerTrade        float64
	sectorExposureLimit float64
}

// Config holds sizer parameters
type Config struct {
	Log                 zerolog.Logger
	RiskPerTrade        float64 // fraction of portfolio risked per trade (e.g., 0.01)
	SectorExposureLimit float64 // maximum fraction allocated to one sector (e.g., 0.30)
}

// NewSizer creates a new position sizer
func NewSizer(cfg Config) *Sizer {
	return &Sizer{
		log:                 cfg.Log.With().Str("component", "position_sizer").Logger(),
		riskPerTrade:        cfg.RiskPerTrade,
		sectorExposureLimit: cfg.SectorExposureLimit,
	}
}

// Context is the portfolio state the sizer needs for one decision
type Context struct {
	PortfolioValue   float64
	AvailableCapital float64
	CurrentPrice     float64

	// SectorExposure is the fraction of portfolio value already allocated
	// to the signal symbol's sector
	SectorExposure float64
}

// Size returns the position size for an entry signal as a fraction of
// portfolio value. Zero means rejection: an invalid stop, an exhausted
// sector budget, and a size that damps away to nothing are all soft rejects,
// never errors.
func (s *Sizer) Size(signal signals.Signal, ctx Context) float64 {
	if !signal.Entry || signal.StopLoss == nil {
		return 0
	}

	if ctx.PortfolioValue <= 0 || ctx.CurrentPrice <= 0 {
		s.log.Warn().
			Str("symbol", signal.Symbol).
			Float64("portfolio_value", ctx.PortfolioValue).
			Float64("price", ctx.CurrentPrice).
			Msg("Cannot size position without portfolio value and price")
		return 0
	}

	stopDistance := math.Abs(ctx.CurrentPrice - *signal.StopLoss)
	if stopDistance <= 0 {
		s.log.Warn().
			Str("symbol", signal.Symbol).
			Msg("Invalid stop distance, rejecting signal")
		return 0
	}

	riskAmount := ctx.PortfolioValue * s.riskPerTrade
	shares := riskAmount / stopDistance
	size := (shares * ctx.CurrentPrice) / ctx.PortfolioValue

	// Damp low-confidence signals toward zero; never amplify. Alignment
	// confidence is the magnitude, so short entries with negative alignment
	// damp the same way as longs.
	if signal.RiskScore > 50 {
		size *= (100 - signal.RiskScore) / 100
	}
	if confidence := math.Abs(signal.TimeframeAlignment); confidence < 50 {
		size *= confidence / 100
	}

	// Cap by remaining sector headroom
	availableSectorExposure := math.Max(0, s.sectorExposureLimit-ctx.SectorExposure)
	size = math.Min(size, availableSectorExposure)

	// Cap by available capital
	size = math.Min(size, ctx.AvailableCapital/ctx.PortfolioValue)

	if size <= 0 {
		return 0
	}

	s.log.Debug().
		Str("symbol", signal.Symbol).
		Float64("size", size).
		Float64("stop_distance", stopDistance).
		Float64("sector_headroom", availableSectorExposure).
		Msg("Position sized")

	return size
}

// SectorExposureLimit returns the configured per-sector cap
func (s *Sizer) SectorExposureLimit() float64 {
	return s.sectorExposureLimit
}
