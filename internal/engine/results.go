package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aristath/helmsman/internal/config"
	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/internal/modules/ledger"
	"github.com/aristath/helmsman/internal/modules/performance"
)

// Parameters is the strategy configuration snapshot stored with a run, so
// a saved result is interpretable without the environment it ran under.
type Parameters struct {
	Symbols             []string           `json:"symbols"`
	Timeframes          []domain.Timeframe `json:"timeframes"`
	IndexSymbol         string             `json:"index_symbol"`
	RiskPerTrade        float64            `json:"risk_per_trade"`
	MaxOpenPositions    int                `json:"max_open_positions"`
	SectorExposureLimit float64            `json:"sector_exposure_limit"`
	InitialCapital      float64            `json:"initial_capital"`
}

func parametersFrom(cfg config.StrategyConfig) Parameters {
	return Parameters{
		Symbols:             cfg.Symbols,
		Timeframes:          cfg.Timeframes,
		IndexSymbol:         cfg.IndexSymbol,
		RiskPerTrade:        cfg.RiskPerTrade,
		MaxOpenPositions:    cfg.MaxOpenPositions,
		SectorExposureLimit: cfg.SectorExposureLimit,
		InitialCapital:      cfg.InitialCapital,
	}
}

// BacktestResult is the full output of one backtest run.
type BacktestResult struct {
	RunID        string               `json:"run_id"`
	StartDate    time.Time            `json:"start_date"`
	EndDate      time.Time            `json:"end_date"`
	InitialValue float64              `json:"initial_value"`
	FinalValue   float64              `json:"final_value"`
	TradeCount   int                  `json:"trade_count"`
	History      []performance.Sample `json:"history"`
	Trades       []ledger.TradeRecord `json:"trades"`
	Metrics      performance.Metrics  `json:"metrics"`
	Parameters   Parameters           `json:"parameters"`
}

// SaveResults writes the result document as indented JSON, creating parent
// directories as needed.
func SaveResults(path string, result *BacktestResult) error {
	if result == nil {
		return fmt.Errorf("nil backtest result")
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode backtest result: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest result: %w", err)
	}
	return nil
}

// LoadResults reads a result document saved by SaveResults.
func LoadResults(path string) (*BacktestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backtest result: %w", err)
	}
	var result BacktestResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode backtest result: %w", err)
	}
	return &result, nil
}
