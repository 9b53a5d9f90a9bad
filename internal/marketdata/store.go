package marketdata

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/helmsman/internal/domain"
	"github.com/rs/zerolog"
)

// Series kinds stored in the bars table
const (
	kindSymbol = "symbol"
	kindSector = "sector"
	kindMacro  = "macro"
)

// storeSchema is the bar store schema.
// The primary key enforces the no-duplicate-timestamp invariant; inserts use
// OR IGNORE so the first occurrence wins on load.
const storeSchema = `
CREATE TABLE IF NOT EXISTS bars (
	kind      TEXT NOT NULL,
	key       TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	ts        TEXT NOT NULL,
	open      REAL NOT NULL,
	high      REAL NOT NULL,
	low       REAL NOT NULL,
	close     REAL NOT NULL,
	volume    REAL NOT NULL,
	PRIMARY KEY (kind, key, timeframe, ts)
);

CREATE TABLE IF NOT EXISTS symbol_sectors (
	symbol TEXT PRIMARY KEY,
	sector TEXT NOT NULL
);
`

// Store is a SQLite-backed bar store implementing Provider.
// It stands in for the external data-acquisition service: ingest jobs write
// bars in, the engine reads ordered snapshots out.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a bar store on an open bars database
func NewStore(db *sql.DB, log zerolog.Logger) (*Store, error) {
	s := &Store{
		db:  db,
		log: log.With().Str("repo", "bars").Logger(),
	}

	if _, err := db.Exec(storeSchema); err != nil {
		return nil, fmt.Errorf("failed to apply bar store schema: %w", err)
	}

	return s, nil
}

// SaveBars inserts bars for a symbol/timeframe, ignoring duplicates
func (s *Store) SaveBars(symbol string, timeframe domain.Timeframe, bars []domain.Bar) error {
	return s.save(kindSymbol, normalize(symbol), timeframe, bars)
}

// SaveSectorBars inserts daily bars for a sector aggregate
func (s *Store) SaveSectorBars(sector string, bars []domain.Bar) error {
	return s.save(kindSector, sector, domain.Timeframe1d, bars)
}

// SaveMacroBars inserts daily bars for a macro indicator
func (s *Store) SaveMacroBars(name string, bars []domain.Bar) error {
	return s.save(kindMacro, normalize(name), domain.Timeframe1d, bars)
}

func (s *Store) save(kind, key string, timeframe domain.Timeframe, bars []domain.Bar) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin bar insert transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO bars (kind, key, timeframe, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare bar insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(
			kind, key, string(timeframe),
			b.Timestamp.UTC().Format(time.RFC3339),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert bar for %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bar insert: %w", err)
	}

	s.log.Debug().
		Str("key", key).
		Str("timeframe", string(timeframe)).
		Int("count", len(bars)).
		Msg("Bars saved")

	return nil
}

// SetSector records the sector classification for a symbol
func (s *Store) SetSector(symbol, sector string) error {
	_, err := s.db.Exec(`
		INSERT INTO symbol_sectors (symbol, sector) VALUES (?, ?)
		ON CONFLICT(symbol) DO UPDATE SET sector = excluded.sector
	`, normalize(symbol), sector)
	if err != nil {
		return fmt.Errorf("failed to set sector for %s: %w", symbol, err)
	}
	return nil
}

// Bars returns the series for a symbol/timeframe, ordered by timestamp
func (s *Store) Bars(symbol string, timeframe domain.Timeframe) (domain.BarSeries, bool) {
	return s.load(kindSymbol, normalize(symbol), timeframe)
}

// SectorBars returns the daily series for a sector
func (s *Store) SectorBars(sector string) (domain.BarSeries, bool) {
	return s.load(kindSector, sector, domain.Timeframe1d)
}

// MacroBars returns the daily series for a macro indicator
func (s *Store) MacroBars(name string) (domain.BarSeries, bool) {
	return s.load(kindMacro, normalize(name), domain.Timeframe1d)
}

func (s *Store) load(kind, key string, timeframe domain.Timeframe) (domain.BarSeries, bool) {
	rows, err := s.db.Query(`
		SELECT ts, open, high, low, close, volume
		FROM bars
		WHERE kind = ? AND key = ? AND timeframe = ?
		ORDER BY ts ASC
	`, kind, key, string(timeframe))
	if err != nil {
		// Data-unavailable is a soft outcome: log and report absence
		s.log.Warn().Err(err).Str("key", key).Msg("Bar query failed")
		return domain.BarSeries{}, false
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var ts string
		var b domain.Bar
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Bar scan failed")
			return domain.BarSeries{}, false
		}
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Str("ts", ts).Msg("Bad bar timestamp, skipping")
			continue
		}
		b.Timestamp = parsed
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Bar iteration failed")
		return domain.BarSeries{}, false
	}

	if len(bars) == 0 {
		return domain.BarSeries{}, false
	}

	return domain.NewBarSeries(key, timeframe, bars), true
}

// Sector returns the sector classification for a symbol
func (s *Store) Sector(symbol string) (string, bool) {
	var sector string
	err := s.db.QueryRow(
		"SELECT sector FROM symbol_sectors WHERE symbol = ?",
		normalize(symbol),
	).Scan(&sector)
	if err != nil {
		return "", false
	}
	return sector, true
}

// Sectors lists all sectors with stored bar data
func (s *Store) Sectors() []string {
	rows, err := s.db.Query(
		"SELECT DISTINCT key FROM bars WHERE kind = ? ORDER BY key", kindSector,
	)
	if err != nil {
		s.log.Warn().Err(err).Msg("Sector listing failed")
		return nil
	}
	defer rows.Close()

	var sectors []string
	for rows.Next() {
		var sector string
		if err := rows.Scan(&sector); err != nil {
			continue
		}
		sectors = append(sectors, sector)
	}
	return sectors
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
