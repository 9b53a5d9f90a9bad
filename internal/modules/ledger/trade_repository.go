package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/internal/modules/regime"
)

// tradesSchema defines the append-only trade log. Repeated application is
// safe; trade rows are never updated or deleted.
const tradesSchema = `
CREATE TABLE IF NOT EXISTS trades (
    id          TEXT PRIMARY KEY,
    position_id TEXT NOT NULL,
    symbol      TEXT NOT NULL,
    side        TEXT NOT NULL,
    direction   TEXT NOT NULL,
    price       REAL NOT NULL,
    size        REAL NOT NULL,
    allocated   REAL NOT NULL,
    executed_at INTEGER NOT NULL,
    regime      TEXT NOT NULL DEFAULT '',
    sector      TEXT NOT NULL DEFAULT '',
    exit_reason TEXT,
    pnl         REAL,
    created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
CREATE INDEX IF NOT EXISTS idx_trades_executed_at ON trades(executed_at);
`

// tradesColumns avoids SELECT * so scan order stays pinned to the schema.
const tradesColumns = `id, position_id, symbol, side, direction, price, size, allocated, executed_at, regime, sector, exit_reason, pnl`

// SchemaApplier applies a schema definition, typically *database.DB.
type SchemaApplier interface {
	ApplySchema(schema string) error
	Conn() *sql.DB
}

// TradeRepository persists trade records in the ledger database.
type TradeRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTradeRepository creates the repository and ensures the schema exists.
func NewTradeRepository(db SchemaApplier, log zerolog.Logger) (*TradeRepository, error) {
	if err := db.ApplySchema(tradesSchema); err != nil {
		return nil, fmt.Errorf("failed to apply trades schema: %w", err)
	}
	return &TradeRepository{
		db:  db.Conn(),
		log: log.With().Str("repo", "trades").Logger(),
	}, nil
}

// Create inserts a trade record. Records are duplicate-safe on ID: inserting
// an already-persisted record is a silent no-op.
func (r *TradeRepository) Create(record TradeRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("failed to create trade record: %w", err)
	}

	exists, err := r.Exists(record.ID)
	if err != nil {
		return fmt.Errorf("failed to check for existing trade record: %w", err)
	}
	if exists {
		r.log.Debug().
			Str("id", record.ID).
			Msg("Trade record already persisted, skipping duplicate")
		return nil
	}

	query := `
		INSERT INTO trades
		(id, position_id, symbol, side, direction, price, size, allocated,
		 executed_at, regime, sector, exit_reason, pnl, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var exitReason sql.NullString
	var pnl sql.NullFloat64
	if record.Side == SideExit {
		exitReason = sql.NullString{String: string(record.ExitReason), Valid: true}
		pnl = sql.NullFloat64{Float64: record.PnL, Valid: true}
	}

	_, err = r.db.Exec(query,
		record.ID,
		record.PositionID,
		strings.ToUpper(strings.TrimSpace(record.Symbol)),
		string(record.Side),
		string(record.Direction),
		record.Price,
		record.Size,
		record.Allocated,
		record.ExecutedAt.Unix(),
		string(record.Regime),
		record.Sector,
		exitReason,
		pnl,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trade record: %w", err)
	}

	r.log.Debug().
		Str("symbol", record.Symbol).
		Str("side", string(record.Side)).
		Float64("price", record.Price).
		Msg("Trade record persisted")
	return nil
}

// Exists checks whether a record with the given ID is already persisted.
func (r *TradeRepository) Exists(id string) (bool, error) {
	var one int
	err := r.db.QueryRow("SELECT 1 FROM trades WHERE id = ? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check trade record existence: %w", err)
	}
	return true, nil
}

// GetHistory returns trade records, most recent first.
func (r *TradeRepository) GetHistory(limit int) ([]TradeRecord, error) {
	query := `
		SELECT ` + tradesColumns + ` FROM trades
		ORDER BY executed_at DESC
		LIMIT ?
	`
	return r.queryRecords(query, limit)
}

// GetBySymbol returns trade records for a symbol, most recent first.
func (r *TradeRepository) GetBySymbol(symbol string, limit int) ([]TradeRecord, error) {
	query := `
		SELECT ` + tradesColumns + ` FROM trades
		WHERE symbol = ?
		ORDER BY executed_at DESC
		LIMIT ?
	`
	return r.queryRecords(query, strings.ToUpper(strings.TrimSpace(symbol)), limit)
}

// GetAllInRange returns trade records executed inside [start, end],
// oldest first.
func (r *TradeRepository) GetAllInRange(start, end time.Time) ([]TradeRecord, error) {
	query := `
		SELECT ` + tradesColumns + ` FROM trades
		WHERE executed_at >= ? AND executed_at <= ?
		ORDER BY executed_at ASC
	`
	return r.queryRecords(query, start.Unix(), end.Unix())
}

// Count returns the total number of persisted trade records.
func (r *TradeRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trade records: %w", err)
	}
	return count, nil
}

func (r *TradeRepository) queryRecords(query string, args ...any) ([]TradeRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade records: %w", err)
	}
	defer rows.Close()

	var records []TradeRecord
	for rows.Next() {
		record, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade records: %w", err)
	}
	return records, nil
}

func scanTradeRecord(rows *sql.Rows) (TradeRecord, error) {
	var record TradeRecord
	var side, direction, regimeName string
	var executedAt int64
	var exitReason sql.NullString
	var pnl sql.NullFloat64

	err := rows.Scan(
		&record.ID,
		&record.PositionID,
		&record.Symbol,
		&side,
		&direction,
		&record.Price,
		&record.Size,
		&record.Allocated,
		&executedAt,
		&regimeName,
		&record.Sector,
		&exitReason,
		&pnl,
	)
	if err != nil {
		return record, err
	}

	record.Side = TradeSide(side)
	record.Direction = domain.Direction(direction)
	record.Regime = regime.Regime(regimeName)
	record.ExecutedAt = time.Unix(executedAt, 0).UTC()
	if exitReason.Valid {
		record.ExitReason = ExitReason(exitReason.String)
	}
	if pnl.Valid {
		record.PnL = pnl.Float64
	}
	return record, nil
}
