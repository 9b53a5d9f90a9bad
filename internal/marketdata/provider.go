// Package marketdata is the boundary to the data-acquisition collaborator.
// The engine only ever sees read-only BarSeries snapshots; absence of data is
// reported as a false ok, never as an error.
package marketdata

import (
	"github.com/aristath/helmsman/internal/domain"
)

// Provider supplies bar series to the engine.
// Implementations must return (zero series, false) when data is unavailable;
// the engine treats that as "skip for this cycle".
type Provider interface {
	// Bars returns the series for a traded symbol on one timeframe
	Bars(symbol string, timeframe domain.Timeframe) (domain.BarSeries, bool)

	// SectorBars returns the daily series for a sector aggregate
	SectorBars(sector string) (domain.BarSeries, bool)

	// MacroBars returns the daily series for a macro indicator (e.g., VIX)
	MacroBars(name string) (domain.BarSeries, bool)

	// Sector returns the sector classification for a symbol
	Sector(symbol string) (string, bool)

	// Sectors lists all sectors with available data
	Sectors() []string
}
