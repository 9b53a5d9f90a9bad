// Package jobs holds the scheduled maintenance jobs: cache snapshots,
// results archiving, and periodic health logging.
package jobs

import (
	"github.com/rs/zerolog"

	"github.com/aristath/helmsman/internal/marketdata"
)

// SnapshotJob persists the market data cache to disk so a restart does not
// start cold.
type SnapshotJob struct {
	cache *marketdata.Cache
	path  string
	log   zerolog.Logger
}

// NewSnapshotJob creates a cache snapshot job writing to the given path.
func NewSnapshotJob(cache *marketdata.Cache, path string, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		cache: cache,
		path:  path,
		log:   log.With().Str("job", "cache_snapshot").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *SnapshotJob) Name() string { return "cache_snapshot" }

// Run writes the snapshot.
func (j *SnapshotJob) Run() error {
	if err := j.cache.SaveSnapshot(j.path); err != nil {
		return err
	}
	j.log.Debug().Str("path", j.path).Msg("Cache snapshot written")
	return nil
}
