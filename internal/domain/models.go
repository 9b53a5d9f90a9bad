// Package domain holds the shared market-data and trading models.
package domain

import (
	"sort"
	"time"
)

// Timeframe is the sampling interval of a bar series
type Timeframe string

const (
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
)

// IsValid checks if the timeframe is one of the supported intervals
func (tf Timeframe) IsValid() bool {
	switch tf {
	case Timeframe15m, Timeframe1h, Timeframe4h, Timeframe1d:
		return true
	}
	return false
}

// Duration returns the bar interval as a time.Duration.
// Unknown timeframes default to one day.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case Timeframe15m:
		return 15 * time.Minute
	case Timeframe1h:
		return time.Hour
	case Timeframe4h:
		return 4 * time.Hour
	}
	return 24 * time.Hour
}

// Direction represents the side of a trade signal or position
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
	DirectionNone  Direction = "none"
)

// Sign returns +1 for long, -1 for short, 0 otherwise
func (d Direction) Sign() float64 {
	switch d {
	case DirectionLong:
		return 1
	case DirectionShort:
		return -1
	}
	return 0
}

// Bar is one OHLCV sample for a symbol over a fixed time interval
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// BarSeries is an ordered, timestamp-indexed sequence of bars for one
// (symbol, timeframe). Timestamps are strictly increasing with no duplicates.
type BarSeries struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	Bars      []Bar     `json:"bars"`
}

// NewBarSeries builds a series from raw bars, sorting by timestamp and
// dropping duplicates (the first occurrence wins).
func NewBarSeries(symbol string, timeframe Timeframe, bars []Bar) BarSeries {
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	deduped := make([]Bar, 0, len(sorted))
	for _, b := range sorted {
		if len(deduped) > 0 && !b.Timestamp.After(deduped[len(deduped)-1].Timestamp) {
			continue
		}
		deduped = append(deduped, b)
	}

	return BarSeries{Symbol: symbol, Timeframe: timeframe, Bars: deduped}
}

// Len returns the number of bars in the series
func (s BarSeries) Len() int {
	return len(s.Bars)
}

// IsEmpty returns true when the series holds no bars
func (s BarSeries) IsEmpty() bool {
	return len(s.Bars) == 0
}

// Latest returns the most recent bar, or nil for an empty series
func (s BarSeries) Latest() *Bar {
	if len(s.Bars) == 0 {
		return nil
	}
	return &s.Bars[len(s.Bars)-1]
}

// Previous returns the second most recent bar, or nil if there are fewer than two bars
func (s BarSeries) Previous() *Bar {
	if len(s.Bars) < 2 {
		return nil
	}
	return &s.Bars[len(s.Bars)-2]
}

// Closes extracts the close prices in chronological order
func (s BarSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high prices in chronological order
func (s BarSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low prices in chronological order
func (s BarSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts the volumes in chronological order
func (s BarSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Through returns the sub-series of bars with timestamps at or before cutoff.
// The returned series shares the underlying bar storage; callers treat it as
// a read-only snapshot.
func (s BarSeries) Through(cutoff time.Time) BarSeries {
	n := sort.Search(len(s.Bars), func(i int) bool {
		return s.Bars[i].Timestamp.After(cutoff)
	})
	return BarSeries{Symbol: s.Symbol, Timeframe: s.Timeframe, Bars: s.Bars[:n]}
}

// Tail returns the last n bars as a sub-series (or the whole series when shorter)
func (s BarSeries) Tail(n int) BarSeries {
	if n >= len(s.Bars) {
		return s
	}
	return BarSeries{Symbol: s.Symbol, Timeframe: s.Timeframe, Bars: s.Bars[len(s.Bars)-n:]}
}
