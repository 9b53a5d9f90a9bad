// Package performance derives aggregate metrics from portfolio history and
// trade records. Everything here is a read-only view; nothing mutates the
// ledger.
package performance

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/helmsman/internal/modules/ledger"
	"github.com/aristath/helmsman/pkg/formulas"
)

// Sample is one portfolio-history observation appended per cycle.
type Sample struct {
	Date          time.Time `json:"date"`
	Value         float64   `json:"value"`
	OpenPositions int       `json:"open_positions"`
}

// GroupStats aggregates closed trades sharing a tag (regime or sector).
type GroupStats struct {
	Trades   int     `json:"trades"`
	Wins     int     `json:"wins"`
	WinRate  float64 `json:"win_rate"`
	TotalPnL float64 `json:"total_pnl"`
}

// Metrics is the full derived performance report.
type Metrics struct {
	TotalReturnPct          float64               `json:"total_return_pct"`
	AnnualizedReturnPct     float64               `json:"annualized_return_pct"`
	AnnualizedVolatilityPct float64               `json:"annualized_volatility_pct"`
	SharpeRatio             float64               `json:"sharpe_ratio"`
	MaxDrawdownPct          float64               `json:"max_drawdown_pct"`
	WinRate                 float64               `json:"win_rate"`
	ClosedTrades            int                   `json:"closed_trades"`
	ProfitFactor            float64               `json:"profit_factor"`
	AvgWinPnL               float64               `json:"avg_win_pnl"`
	AvgLossPnL              float64               `json:"avg_loss_pnl"`
	ByRegime                map[string]GroupStats `json:"by_regime,omitempty"`
	BySector                map[string]GroupStats `json:"by_sector,omitempty"`
}

// Calculator computes Metrics from run outputs.
type Calculator struct {
	log zerolog.Logger
}

// NewCalculator creates a metrics calculator.
func NewCalculator(log zerolog.Logger) *Calculator {
	return &Calculator{log: log.With().Str("component", "performance").Logger()}
}

// Compute derives the full report. Short histories produce zeroed
// curve metrics; trade statistics only need the record stream.
func (c *Calculator) Compute(history []Sample, trades []ledger.TradeRecord) Metrics {
	m := Metrics{}

	values := make([]float64, 0, len(history))
	for _, s := range history {
		if s.Value > 0 {
			values = append(values, s.Value)
		}
	}

	if len(values) >= 2 {
		returns := formulas.Returns(values)
		m.TotalReturnPct = (values[len(values)-1]/values[0] - 1) * 100
		m.AnnualizedReturnPct = formulas.AnnualizedReturn(m.TotalReturnPct, len(values))
		m.AnnualizedVolatilityPct = formulas.AnnualizedVolatility(returns) * 100
		m.MaxDrawdownPct = formulas.MaxDrawdownFromReturns(returns) * 100
		if m.AnnualizedVolatilityPct > 0 {
			m.SharpeRatio = m.AnnualizedReturnPct / m.AnnualizedVolatilityPct
		}
	} else {
		c.log.Debug().
			Int("samples", len(values)).
			Msg("Not enough history samples for curve metrics")
	}

	c.tradeStats(&m, trades)
	return m
}

// tradeStats fills the closed-trade statistics. Only exit records carry
// realized P&L; entry records are counted nowhere here.
func (c *Calculator) tradeStats(m *Metrics, trades []ledger.TradeRecord) {
	var wins, losses int
	var grossProfit, grossLoss float64
	byRegime := make(map[string]GroupStats)
	bySector := make(map[string]GroupStats)

	for _, t := range trades {
		if t.Side != ledger.SideExit {
			continue
		}
		m.ClosedTrades++
		won := t.PnL > 0
		if won {
			wins++
			grossProfit += t.PnL
		} else {
			losses++
			grossLoss += math.Abs(t.PnL)
		}
		accumulate(byRegime, string(t.Regime), t.PnL, won)
		accumulate(bySector, t.Sector, t.PnL, won)
	}

	if m.ClosedTrades > 0 {
		m.WinRate = float64(wins) / float64(m.ClosedTrades)
	}
	if wins > 0 {
		m.AvgWinPnL = grossProfit / float64(wins)
	}
	if losses > 0 {
		m.AvgLossPnL = -grossLoss / float64(losses)
	}
	if grossLoss > 0 {
		m.ProfitFactor = grossProfit / grossLoss
	}
	if len(byRegime) > 0 {
		m.ByRegime = byRegime
	}
	if len(bySector) > 0 {
		m.BySector = bySector
	}
}

func accumulate(groups map[string]GroupStats, key string, pnl float64, won bool) {
	if key == "" {
		return
	}
	g := groups[key]
	g.Trades++
	if won {
		g.Wins++
	}
	g.TotalPnL += pnl
	g.WinRate = float64(g.Wins) / float64(g.Trades)
	groups[key] = g
}
