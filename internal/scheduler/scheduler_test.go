package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func (j *countJob) Name() string { return j.name }

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("not a schedule", &countJob{name: "broken"})
	assert.Error(t, err)
}

func TestAddJobAcceptsCronForms(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.AddJob("0 0 * * * *", &countJob{name: "hourly"}))
	require.NoError(t, s.AddJob("@every 30s", &countJob{name: "interval"}))
	require.NoError(t, s.AddJob("@daily", &countJob{name: "daily"}))
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())

	job := &countJob{name: "snapshot"}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int64(1), job.runs.Load())

	failing := &countJob{name: "archive", err: errors.New("bucket unreachable")}
	assert.Error(t, s.RunNow(failing))
	assert.Equal(t, int64(1), failing.runs.Load())
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@every 1h", &countJob{name: "idle"}))

	s.Start()
	s.Stop()
}
