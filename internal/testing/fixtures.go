package testing

import (
	"math"
	"time"

	"github.com/aristath/helmsman/internal/domain"
)

// BarSeriesOpts controls fixture series generation.
type BarSeriesOpts struct {
	Symbol    string
	Timeframe domain.Timeframe
	Start     time.Time
	Count     int
	StartPrice float64

	// Drift is the per-bar fractional price change (0.01 = +1% per bar).
	Drift float64

	// Wave adds a sine oscillation of the given fractional amplitude so
	// flat series still have non-zero indicator variance.
	Wave float64

	Volume float64
}

// NewBarSeries generates a synthetic series. Defaults: 100 daily bars from
// 2024-01-01, price 100, volume 1e6, no drift, 0.5% wave.
func NewBarSeries(opts BarSeriesOpts) domain.BarSeries {
	if opts.Symbol == "" {
		opts.Symbol = "TEST"
	}
	if opts.Timeframe == "" {
		opts.Timeframe = domain.Timeframe1d
	}
	if opts.Start.IsZero() {
		opts.Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if opts.Count == 0 {
		opts.Count = 100
	}
	if opts.StartPrice == 0 {
		opts.StartPrice = 100
	}
	if opts.Volume == 0 {
		opts.Volume = 1_000_000
	}
	if opts.Wave == 0 {
		opts.Wave = 0.005
	}

	step := opts.Timeframe.Duration()
	bars := make([]domain.Bar, opts.Count)
	price := opts.StartPrice
	for i := range bars {
		price *= 1 + opts.Drift
		wobble := 1 + opts.Wave*math.Sin(float64(i)/3)
		c := price * wobble
		bars[i] = domain.Bar{
			Timestamp: opts.Start.Add(time.Duration(i) * step),
			Open:      c * 0.998,
			High:      c * 1.006,
			Low:       c * 0.994,
			Close:     c,
			Volume:    opts.Volume,
		}
	}
	return domain.NewBarSeries(opts.Symbol, opts.Timeframe, bars)
}

// UptrendSeries is a strongly rising series suitable for bullish scenarios.
func UptrendSeries(symbol string, timeframe domain.Timeframe, count int) domain.BarSeries {
	return NewBarSeries(BarSeriesOpts{
		Symbol:    symbol,
		Timeframe: timeframe,
		Count:     count,
		Drift:     0.01,
	})
}

// DowntrendSeries is a strongly falling series.
func DowntrendSeries(symbol string, timeframe domain.Timeframe, count int) domain.BarSeries {
	return NewBarSeries(BarSeriesOpts{
		Symbol:    symbol,
		Timeframe: timeframe,
		Count:     count,
		Drift:     -0.01,
	})
}

// FlatSeries oscillates around its start price with no drift.
func FlatSeries(symbol string, timeframe domain.Timeframe, count int) domain.BarSeries {
	return NewBarSeries(BarSeriesOpts{
		Symbol:    symbol,
		Timeframe: timeframe,
		Count:     count,
	})
}
