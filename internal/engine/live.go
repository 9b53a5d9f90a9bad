package engine

import (
	"context"
	"time"
)

// Refresher is implemented by data providers that can invalidate cached
// series before a live cycle (the marketdata cache does).
type Refresher interface {
	RefreshAll()
}

// RunLive evaluates the strategy once per configured interval against fresh
// data until the context is cancelled. Cancellation is cooperative: an
// in-flight cycle finishes before the loop returns. Open positions are left
// as they are on shutdown.
func (e *Engine) RunLive(ctx context.Context) error {
	interval := e.cfg.LiveInterval
	if interval <= 0 {
		interval = time.Hour
	}

	e.log.Info().
		Dur("interval", interval).
		Msg("Live loop starting")

	// First cycle runs immediately; the ticker handles the rest.
	e.liveCycle(time.Now().UTC())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info().
				Int("open_positions", e.ledger.OpenCount()).
				Msg("Live loop stopped")
			return nil
		case now := <-ticker.C:
			e.liveCycle(now.UTC())
		}
	}
}

// liveCycle runs one live evaluation with panic isolation. A failed cycle
// is logged and skipped; the loop continues at the next tick.
func (e *Engine) liveCycle(at time.Time) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().
				Interface("panic", r).
				Time("at", at).
				Msg("Cycle failed, continuing at next interval")
		}
	}()

	if refresher, ok := e.data.(Refresher); ok {
		refresher.RefreshAll()
	}
	e.cycle(at, time.Time{})
}
