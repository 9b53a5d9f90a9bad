package marketdata

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aristath/helmsman/internal/domain"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache is an explicit keyed cache of bar series sitting in front of a
// Provider. Entries are populated on first access and stay valid until
// Refresh is called for the key (or RefreshAll for everything), never
// implicitly expired mid-cycle.
type Cache struct {
	source Provider
	log    zerolog.Logger

	mu      sync.RWMutex
	series  map[string]domain.BarSeries
	sectors map[string]string
}

// NewCache wraps a provider with an explicit cache
func NewCache(source Provider, log zerolog.Logger) *Cache {
	return &Cache{
		source:  source,
		log:     log.With().Str("component", "bar_cache").Logger(),
		series:  make(map[string]domain.BarSeries),
		sectors: make(map[string]string),
	}
}

func seriesKey(kind, key string, timeframe domain.Timeframe) string {
	return kind + "|" + key + "|" + string(timeframe)
}

// Bars returns the cached series for a symbol/timeframe, loading it from the
// source on first access
func (c *Cache) Bars(symbol string, timeframe domain.Timeframe) (domain.BarSeries, bool) {
	sym := normalize(symbol)
	return c.get(kindSymbol, sym, timeframe, func() (domain.BarSeries, bool) {
		return c.source.Bars(sym, timeframe)
	})
}

// SectorBars returns the cached daily series for a sector
func (c *Cache) SectorBars(sector string) (domain.BarSeries, bool) {
	return c.get(kindSector, sector, domain.Timeframe1d, func() (domain.BarSeries, bool) {
		return c.source.SectorBars(sector)
	})
}

// MacroBars returns the cached daily series for a macro indicator
func (c *Cache) MacroBars(name string) (domain.BarSeries, bool) {
	key := normalize(name)
	return c.get(kindMacro, key, domain.Timeframe1d, func() (domain.BarSeries, bool) {
		return c.source.MacroBars(key)
	})
}

func (c *Cache) get(kind, key string, timeframe domain.Timeframe, load func() (domain.BarSeries, bool)) (domain.BarSeries, bool) {
	k := seriesKey(kind, key, timeframe)

	c.mu.RLock()
	cached, ok := c.series[k]
	c.mu.RUnlock()
	if ok {
		return cached, !cached.IsEmpty()
	}

	series, found := load()
	if !found {
		// Absence is not cached; the next cycle retries the source
		return domain.BarSeries{}, false
	}

	c.mu.Lock()
	c.series[k] = series
	c.mu.Unlock()

	return series, true
}

// Sector returns the sector classification for a symbol
func (c *Cache) Sector(symbol string) (string, bool) {
	sym := normalize(symbol)

	c.mu.RLock()
	sector, ok := c.sectors[sym]
	c.mu.RUnlock()
	if ok {
		return sector, sector != ""
	}

	sector, found := c.source.Sector(sym)
	if !found {
		return "", false
	}

	c.mu.Lock()
	c.sectors[sym] = sector
	c.mu.Unlock()

	return sector, true
}

// Sectors lists all sectors known to the source
func (c *Cache) Sectors() []string {
	return c.source.Sectors()
}

// Refresh invalidates the cached series for one symbol/timeframe
func (c *Cache) Refresh(symbol string, timeframe domain.Timeframe) {
	c.mu.Lock()
	delete(c.series, seriesKey(kindSymbol, normalize(symbol), timeframe))
	c.mu.Unlock()
}

// RefreshAll invalidates every cached entry.
// Called between live cycles so each cycle sees fresh data.
func (c *Cache) RefreshAll() {
	c.mu.Lock()
	c.series = make(map[string]domain.BarSeries)
	c.sectors = make(map[string]string)
	c.mu.Unlock()

	c.log.Debug().Msg("Bar cache invalidated")
}

// snapshot is the on-disk cache snapshot format
type snapshot struct {
	SavedAt time.Time                   `msgpack:"saved_at"`
	Series  map[string]domain.BarSeries `msgpack:"series"`
	Sectors map[string]string           `msgpack:"sectors"`
}

// SaveSnapshot persists the cache contents to disk with msgpack.
// Used between process restarts to avoid a cold start against the source.
func (c *Cache) SaveSnapshot(path string) error {
	c.mu.RLock()
	snap := snapshot{
		SavedAt: time.Now().UTC(),
		Series:  make(map[string]domain.BarSeries, len(c.series)),
		Sectors: make(map[string]string, len(c.sectors)),
	}
	for k, v := range c.series {
		snap.Series[k] = v
	}
	for k, v := range c.sectors {
		snap.Sectors[k] = v
	}
	c.mu.RUnlock()

	data, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode cache snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache snapshot: %w", err)
	}

	c.log.Debug().Str("path", path).Int("entries", len(snap.Series)).Msg("Cache snapshot saved")
	return nil
}

// LoadSnapshot restores cache contents from a msgpack snapshot.
// A missing file is not an error; a corrupt file is.
func (c *Cache) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache snapshot: %w", err)
	}

	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode cache snapshot: %w", err)
	}

	c.mu.Lock()
	c.series = snap.Series
	c.sectors = snap.Sectors
	if c.series == nil {
		c.series = make(map[string]domain.BarSeries)
	}
	if c.sectors == nil {
		c.sectors = make(map[string]string)
	}
	c.mu.Unlock()

	c.log.Info().
		Str("path", path).
		Int("entries", len(snap.Series)).
		Time("saved_at", snap.SavedAt).
		Msg("Cache snapshot loaded")

	return nil
}
