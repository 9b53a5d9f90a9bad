package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunBacktest replays the strategy over [start, end] with one evaluation
// slice per calendar day. Each slice sees all bars up to and including its
// date, never beyond. The engine must be freshly constructed; reusing one
// across runs would carry ledger state over.
func (e *Engine) RunBacktest(ctx context.Context, start, end time.Time) (*BacktestResult, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("backtest end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	e.log.Info().
		Time("start", start).
		Time("end", end).
		Float64("initial_capital", e.cfg.InitialCapital).
		Msg("Backtest starting")

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	for !day.After(last) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		cutoff := day.Add(24*time.Hour - time.Second)
		e.cycle(day, cutoff)
		day = day.AddDate(0, 0, 1)
	}

	trades := e.ledger.Trades()
	metrics := e.perf.Compute(e.history, trades)

	finalValue := e.cfg.InitialCapital
	if len(e.history) > 0 {
		finalValue = e.history[len(e.history)-1].Value
	}

	result := &BacktestResult{
		RunID:        uuid.New().String(),
		StartDate:    time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		EndDate:      last,
		InitialValue: e.cfg.InitialCapital,
		FinalValue:   finalValue,
		TradeCount:   len(trades),
		History:      e.History(),
		Trades:       trades,
		Metrics:      metrics,
		Parameters:   parametersFrom(e.cfg),
	}

	e.log.Info().
		Str("run_id", result.RunID).
		Float64("final_value", result.FinalValue).
		Float64("total_return_pct", metrics.TotalReturnPct).
		Int("trades", result.TradeCount).
		Msg("Backtest complete")
	return result, nil
}
