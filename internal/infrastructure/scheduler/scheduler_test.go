package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *stubJob) Name() string        { return j.name }
func (j *stubJob) Description() string { return "stub job" }

func (j *stubJob) Run(_ context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestIntervalScheduleNext(t *testing.T) {
	schedule := NewIntervalSchedule(15 * time.Minute)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, at.Add(15*time.Minute), schedule.Next(at))
	assert.Equal(t, "@every 15m0s", schedule.String())
}

func TestRegisterValidation(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&stubJob{name: "sync"}, nil), ErrNilSchedule)

	require.NoError(t, s.Register(&stubJob{name: "sync"}, NewIntervalSchedule(time.Minute)))
	assert.ErrorIs(t, s.Register(&stubJob{name: "sync"}, NewIntervalSchedule(time.Minute)), ErrJobAlreadyExists)
}

func TestRunNowExecutesJob(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	job := &stubJob{name: "sync"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "sync")
	require.NoError(t, err)

	assert.Equal(t, int64(1), job.runs.Load())
	assert.True(t, result.Success)
	assert.Equal(t, "sync", result.JobName)
	assert.Equal(t, true, result.Metadata["manual"])
}

func TestRunNowUnknownJob(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())

	_, err := s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunNowReportsJobFailure(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	job := &stubJob{name: "sweep", err: errors.New("store unavailable")}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "sweep")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Error(t, result.Error)
}

func TestStartStopLifecycle(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	require.NoError(t, s.Register(&stubJob{name: "sync"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestListJobsReportsRegistered(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	require.NoError(t, s.Register(&stubJob{name: "sync"}, NewIntervalSchedule(15*time.Minute)))

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "sync", jobs[0].Name)
	assert.True(t, jobs[0].Enabled)
	assert.Equal(t, "@every 15m0s", jobs[0].Schedule)
}
