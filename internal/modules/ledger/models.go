package ledger

import (
	"fmt"
	"time"

	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/internal/modules/regime"
)

// PositionStatus tracks the lifecycle of a position. The lifecycle is
// strictly none -> open -> closed; a closed position is terminal and a new
// entry on the same symbol creates a fresh Position instance.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitSignal     ExitReason = "signal"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
)

// TradeSide distinguishes the two record types a position produces.
type TradeSide string

const (
	SideEntry TradeSide = "entry"
	SideExit  TradeSide = "exit"
)

// Position is a single open or closed holding in the simulated portfolio.
// Allocated is the capital deducted at entry (size fraction times the
// portfolio value at that moment); all P&L math is relative to it.
type Position struct {
	ID          string           `json:"id"`
	Symbol      string           `json:"symbol"`
	Direction   domain.Direction `json:"direction"`
	Size        float64          `json:"size"`
	Allocated   float64          `json:"allocated"`
	EntryPrice  float64          `json:"entry_price"`
	EntryTime   time.Time        `json:"entry_time"`
	StopLoss    *float64         `json:"stop_loss,omitempty"`
	TargetPrice *float64         `json:"target_price,omitempty"`
	Regime      regime.Regime    `json:"regime"`
	Sector      string           `json:"sector"`
	Status      PositionStatus   `json:"status"`
	ExitPrice   float64          `json:"exit_price,omitempty"`
	ExitTime    time.Time        `json:"exit_time,omitempty"`
	ExitReason  ExitReason       `json:"exit_reason,omitempty"`
	RealizedPnL float64          `json:"realized_pnl,omitempty"`
}

// UnrealizedPnL applies the same P&L formula as realized exits, against a
// mark price instead of an exit price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return p.Direction.Sign() * (price/p.EntryPrice - 1) * p.Allocated
}

// MarketValue is the allocated capital adjusted by unrealized P&L.
func (p *Position) MarketValue(price float64) float64 {
	return p.Allocated + p.UnrealizedPnL(price)
}

// TradeRecord is an immutable audit entry appended when a position opens or
// closes. Exit records carry the realized P&L and the reason; entry records
// leave both zero-valued.
type TradeRecord struct {
	ID         string           `json:"id"`
	PositionID string           `json:"position_id"`
	Symbol     string           `json:"symbol"`
	Side       TradeSide        `json:"side"`
	Direction  domain.Direction `json:"direction"`
	Price      float64          `json:"price"`
	Size       float64          `json:"size"`
	Allocated  float64          `json:"allocated"`
	ExecutedAt time.Time        `json:"executed_at"`
	Regime     regime.Regime    `json:"regime"`
	Sector     string           `json:"sector"`
	ExitReason ExitReason       `json:"exit_reason,omitempty"`
	PnL        float64          `json:"pnl,omitempty"`
}

// Validate checks the fields that would violate database constraints.
func (t TradeRecord) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("trade record missing id")
	}
	if t.Symbol == "" {
		return fmt.Errorf("trade record missing symbol")
	}
	if t.Side != SideEntry && t.Side != SideExit {
		return fmt.Errorf("invalid trade side: %s", t.Side)
	}
	if t.Price <= 0 {
		return fmt.Errorf("invalid trade price: %f", t.Price)
	}
	return nil
}
