package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/aristath/helmsman/internal/config"
	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/internal/engine"
	"github.com/aristath/helmsman/internal/marketdata"
	"github.com/aristath/helmsman/internal/modules/ledger"
	"github.com/aristath/helmsman/internal/modules/performance"
	"github.com/aristath/helmsman/internal/reliability"
	helpers "github.com/aristath/helmsman/internal/testing"
)

func newTestServer(t *testing.T) (*Server, *appconfig.Config, func()) {
	t.Helper()

	db, cleanup := helpers.NewTestDB(t, "server_trades")
	repo, err := ledger.NewTradeRepository(db, zerolog.Nop())
	require.NoError(t, err)

	cfg := &appconfig.Config{
		Port:        0,
		ResultsPath: filepath.Join(t.TempDir(), "results.json"),
		Strategy: appconfig.StrategyConfig{
			Symbols:             []string{"AAPL"},
			Timeframes:          []domain.Timeframe{domain.Timeframe1h, domain.Timeframe1d},
			IndexSymbol:         "SPY",
			VolatilitySymbol:    "VIX",
			RiskPerTrade:        0.01,
			MaxOpenPositions:    3,
			SectorExposureLimit: 0.30,
			InitialCapital:      100_000,
			BacktestDays:        30,
		},
	}

	data := helpers.NewMockProvider()
	data.SetBars("AAPL", domain.Timeframe1h, helpers.UptrendSeries("AAPL", domain.Timeframe1h, 600))
	data.SetBars("SPY", domain.Timeframe1d, helpers.UptrendSeries("SPY", domain.Timeframe1d, 60))
	data.SetSectorBars("technology", helpers.UptrendSeries("XLK", domain.Timeframe1d, 60))
	data.SetSector("AAPL", "technology")

	srv := New(Config{
		Log:       zerolog.Nop(),
		Cfg:       cfg,
		Data:      marketdata.NewCache(data, zerolog.Nop()),
		TradeRepo: repo,
		Health:    reliability.NewHealthService(zerolog.Nop()),
	})
	return srv, cfg, cleanup
}

func doRequest(srv *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func TestLivenessEndpoint(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	rec := doRequest(srv, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestStatusEndpoint(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	rec := doRequest(srv, http.MethodGet, "/api/status")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "SPY", body["index_symbol"])
	assert.Contains(t, body, "uptime_seconds")
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	rec := doRequest(srv, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "cpu_percent")
}

func TestResultsEndpointEmpty(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	rec := doRequest(srv, http.MethodGet, "/api/results")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResultsEndpoint(t *testing.T) {
	srv, cfg, cleanup := newTestServer(t)
	defer cleanup()

	saved := &engine.BacktestResult{
		RunID:        "run-1",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		InitialValue: 100_000,
		FinalValue:   101_000,
		Metrics:      performance.Metrics{TotalReturnPct: 1.0},
	}
	require.NoError(t, engine.SaveResults(cfg.ResultsPath, saved))

	rec := doRequest(srv, http.MethodGet, "/api/results")
	assert.Equal(t, http.StatusOK, rec.Code)

	var loaded engine.BacktestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, "run-1", loaded.RunID)
	assert.InDelta(t, 1.0, loaded.Metrics.TotalReturnPct, 1e-9)
}

func TestTradesEndpoint(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	require.NoError(t, srv.handlers.tradeRepo.Create(ledger.TradeRecord{
		ID:         "t1",
		PositionID: "p1",
		Symbol:     "AAPL",
		Side:       ledger.SideEntry,
		Direction:  domain.DirectionLong,
		Price:      100,
		Size:       0.1,
		Allocated:  10_000,
		ExecutedAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}))

	rec := doRequest(srv, http.MethodGet, "/api/trades?limit=10")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count  int                  `json:"count"`
		Trades []ledger.TradeRecord `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Trades, 1)
	assert.Equal(t, "AAPL", body.Trades[0].Symbol)
}

func TestBacktestEndpoint(t *testing.T) {
	srv, cfg, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/api/backtest",
		jsonBody(`{"start_date":"2024-01-10","end_date":"2024-01-12"}`))
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result engine.BacktestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.History, 3)

	// The result document is also saved for /api/results
	loaded, err := engine.LoadResults(cfg.ResultsPath)
	require.NoError(t, err)
	assert.Equal(t, result.RunID, loaded.RunID)
}

func TestBacktestEndpointBadDates(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/api/backtest",
		jsonBody(`{"start_date":"01/10/2024","end_date":"01/12/2024"}`))
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}
