// Package reliability holds the operational services around the engine:
// host health reporting and off-site archiving of run results.
package reliability

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthSnapshot is a point-in-time view of host resource usage.
type HealthSnapshot struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryUsedMB  float64   `json:"memory_used_mb"`
	CollectedAt   time.Time `json:"collected_at"`
}

// HealthService samples host CPU and memory usage.
type HealthService struct {
	log zerolog.Logger
}

// NewHealthService creates a health service.
func NewHealthService(log zerolog.Logger) *HealthService {
	return &HealthService{
		log: log.With().Str("service", "health").Logger(),
	}
}

// Snapshot samples current resource usage. The CPU reading uses a 100ms
// window so callers on a request path are not blocked for long.
func (s *HealthService) Snapshot() HealthSnapshot {
	snap := HealthSnapshot{CollectedAt: time.Now().UTC()}

	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read CPU usage")
	} else if len(cpuPercent) > 0 {
		snap.CPUPercent = cpuPercent[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read memory statistics")
	} else {
		snap.MemoryPercent = memStat.UsedPercent
		snap.MemoryUsedMB = float64(memStat.Used) / 1024 / 1024
	}

	return snap
}
