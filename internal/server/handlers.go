package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/helmsman/internal/config"
	"github.com/aristath/helmsman/internal/engine"
	"github.com/aristath/helmsman/internal/marketdata"
	"github.com/aristath/helmsman/internal/modules/ledger"
	"github.com/aristath/helmsman/internal/reliability"
)

// Handlers implements the API endpoints.
type Handlers struct {
	log       zerolog.Logger
	cfg       *config.Config
	data      *marketdata.Cache
	tradeRepo *ledger.TradeRepository
	health    *reliability.HealthService
	startedAt time.Time

	// One backtest at a time; the engine owns a single ledger per run and
	// runs are CPU-bound anyway.
	backtestMu sync.Mutex
}

// NewHandlers creates the API handlers.
func NewHandlers(cfg Config) *Handlers {
	return &Handlers{
		log:       cfg.Log.With().Str("component", "handlers").Logger(),
		cfg:       cfg.Cfg,
		data:      cfg.Data,
		tradeRepo: cfg.TradeRepo,
		health:    cfg.Health,
		startedAt: time.Now().UTC(),
	}
}

// HandleLiveness answers plain liveness probes.
// GET /health
func (h *Handlers) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleHealth reports host resource usage.
// GET /api/health
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.health.Snapshot())
}

// HandleStatus reports the running configuration and uptime.
// GET /api/status
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"uptime_seconds":     int(time.Since(h.startedAt).Seconds()),
		"symbols":            h.cfg.Strategy.Symbols,
		"timeframes":         h.cfg.Strategy.Timeframes,
		"index_symbol":       h.cfg.Strategy.IndexSymbol,
		"sectors":            h.data.Sectors(),
		"max_open_positions": h.cfg.Strategy.MaxOpenPositions,
	})
}

// backtestRequest is the optional POST body; zero values fall back to the
// configured backtest window ending today.
type backtestRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

// HandleBacktest runs a backtest synchronously and returns the result
// document. The result is also saved to the configured results path.
// POST /api/backtest
func (h *Handlers) HandleBacktest(w http.ResponseWriter, r *http.Request) {
	if !h.backtestMu.TryLock() {
		h.writeError(w, http.StatusConflict, "a backtest is already running")
		return
	}
	defer h.backtestMu.Unlock()

	var req backtestRequest
	if r.Body != nil {
		// An empty body means "use defaults".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	start, end, err := h.resolveWindow(req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	eng := engine.New(h.cfg.Strategy, h.data, h.tradeRepo, h.log)
	result, err := eng.RunBacktest(r.Context(), start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Backtest failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := engine.SaveResults(h.cfg.ResultsPath, result); err != nil {
		h.log.Error().Err(err).
			Str("path", h.cfg.ResultsPath).
			Msg("Failed to save backtest results")
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) resolveWindow(req backtestRequest) (time.Time, time.Time, error) {
	if req.StartDate != "" && req.EndDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, end, nil
	}

	days := req.Days
	if days <= 0 {
		days = h.cfg.Strategy.BacktestDays
	}
	end := time.Now().UTC()
	return end.AddDate(0, 0, -days), end, nil
}

// HandleResults returns the most recently saved backtest results.
// GET /api/results
func (h *Handlers) HandleResults(w http.ResponseWriter, r *http.Request) {
	result, err := engine.LoadResults(h.cfg.ResultsPath)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "no results available")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleTrades returns recent persisted trade records.
// GET /api/trades?limit=50
func (h *Handlers) HandleTrades(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	trades, err := h.tradeRepo.GetHistory(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load trade history")
		h.writeError(w, http.StatusInternalServerError, "failed to load trades")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(trades),
		"trades": trades,
	})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}
