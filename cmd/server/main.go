// Package main is the entry point for the helmsman strategy engine. It
// serves the HTTP API and, depending on flags, runs a one-shot backtest or
// the live evaluation loop.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/helmsman/internal/config"
	"github.com/aristath/helmsman/internal/database"
	"github.com/aristath/helmsman/internal/engine"
	"github.com/aristath/helmsman/internal/marketdata"
	"github.com/aristath/helmsman/internal/modules/ledger"
	"github.com/aristath/helmsman/internal/reliability"
	"github.com/aristath/helmsman/internal/scheduler"
	"github.com/aristath/helmsman/internal/scheduler/jobs"
	"github.com/aristath/helmsman/internal/server"
	"github.com/aristath/helmsman/pkg/logger"
)

func main() {
	runBacktest := flag.Bool("backtest", false, "run a backtest over the configured window, save results, and exit")
	runLive := flag.Bool("live", false, "run the live evaluation loop alongside the API")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Bar store on the standard profile; the append-only trade log on the
	// ledger profile with full synchronous writes.
	barsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "bars.db"),
		Profile: database.ProfileStandard,
		Name:    "bars",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open bars database")
	}
	defer barsDB.Close()

	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	store, err := marketdata.NewStore(barsDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize bar store")
	}

	cache := marketdata.NewCache(store, log)
	snapshotPath := filepath.Join(cfg.DataDir, "cache-snapshot.msgpack")
	if err := cache.LoadSnapshot(snapshotPath); err != nil {
		log.Warn().Err(err).Msg("Could not load cache snapshot, starting cold")
	}

	tradeRepo, err := ledger.NewTradeRepository(ledgerDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize trade repository")
	}

	health := reliability.NewHealthService(log)

	sched := scheduler.New(log)
	if err := sched.AddJob("0 0 * * * *", jobs.NewSnapshotJob(cache, snapshotPath, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot job")
	}
	if err := sched.AddJob("0 30 * * * *", jobs.NewHealthJob(health, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register health job")
	}
	if cfg.Archive.Enabled {
		archive, err := reliability.NewArchiveService(cfg.Archive, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize results archive")
		}
		if err := sched.AddJob("0 0 1 * * *", jobs.NewArchiveJob(archive, cfg.ResultsPath, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register archive job")
		}
	}
	sched.Start()
	defer sched.Stop()

	if *runBacktest {
		end := time.Now().UTC()
		start := end.AddDate(0, 0, -cfg.Strategy.BacktestDays)

		eng := engine.New(cfg.Strategy, cache, tradeRepo, log)
		result, err := eng.RunBacktest(context.Background(), start, end)
		if err != nil {
			log.Fatal().Err(err).Msg("Backtest failed")
		}
		if err := engine.SaveResults(cfg.ResultsPath, result); err != nil {
			log.Fatal().Err(err).Msg("Failed to save backtest results")
		}
		log.Info().
			Str("path", cfg.ResultsPath).
			Float64("total_return_pct", result.Metrics.TotalReturnPct).
			Msg("Backtest results saved")
		return
	}

	srv := server.New(server.Config{
		Log:       log,
		Cfg:       cfg,
		Data:      cache,
		TradeRepo: tradeRepo,
		Health:    health,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	liveDone := make(chan struct{})
	if *runLive {
		eng := engine.New(cfg.Strategy, cache, tradeRepo, log)
		go func() {
			defer close(liveDone)
			if err := eng.RunLive(ctx); err != nil {
				log.Error().Err(err).Msg("Live loop exited with error")
			}
		}()
	} else {
		close(liveDone)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	cancel()
	<-liveDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
