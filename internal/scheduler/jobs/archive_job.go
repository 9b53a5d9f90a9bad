package jobs

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/helmsman/internal/reliability"
)

// ArchiveJob uploads the latest results document to the off-site archive.
// Missing results are a quiet no-op; a run may simply not have happened yet.
type ArchiveJob struct {
	archive     *reliability.ArchiveService
	resultsPath string
	log         zerolog.Logger
}

// NewArchiveJob creates a results archive job.
func NewArchiveJob(archive *reliability.ArchiveService, resultsPath string, log zerolog.Logger) *ArchiveJob {
	return &ArchiveJob{
		archive:     archive,
		resultsPath: resultsPath,
		log:         log.With().Str("job", "results_archive").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *ArchiveJob) Name() string { return "results_archive" }

// Run uploads the results file if it exists.
func (j *ArchiveJob) Run() error {
	if _, err := os.Stat(j.resultsPath); os.IsNotExist(err) {
		j.log.Debug().Str("path", j.resultsPath).Msg("No results to archive yet")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	key, err := j.archive.UploadResults(ctx, j.resultsPath)
	if err != nil {
		return err
	}
	j.log.Info().Str("key", key).Msg("Results uploaded to archive")
	return nil
}
