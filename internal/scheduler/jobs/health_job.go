package jobs

import (
	"github.com/rs/zerolog"

	"github.com/aristath/helmsman/internal/reliability"
)

// HealthJob logs a periodic host-resource snapshot so long-running live
// deployments leave a usage trail in the logs.
type HealthJob struct {
	health *reliability.HealthService
	log    zerolog.Logger
}

// NewHealthJob creates a health logging job.
func NewHealthJob(health *reliability.HealthService, log zerolog.Logger) *HealthJob {
	return &HealthJob{
		health: health,
		log:    log.With().Str("job", "health_log").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *HealthJob) Name() string { return "health_log" }

// Run samples and logs host resource usage.
func (j *HealthJob) Run() error {
	snap := j.health.Snapshot()
	j.log.Info().
		Float64("cpu_percent", snap.CPUPercent).
		Float64("memory_percent", snap.MemoryPercent).
		Float64("memory_used_mb", snap.MemoryUsedMB).
		Msg("Host health")
	return nil
}
