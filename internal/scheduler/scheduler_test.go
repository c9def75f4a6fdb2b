package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/highscan/pkg/retry"
)

type countingJob struct {
	name     string
	schedule string
	failN    int32
	perm     bool
	calls    atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failN {
		err := errors.New("provider down")
		if j.perm {
			return retry.Permanent(err)
		}
		return err
	}
	return nil
}

func fastRetry() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		Backoff:     1,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}
}

func TestAddJob(t *testing.T) {
	s := New(nil, time.UTC)

	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 30 15 * * 1-5"}))
	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&countingJob{name: "b", schedule: "not a cron"}))

	assert.Equal(t, []string{"a"}, s.GetAllJobs())
}

func TestRunJobSync_RetriesThenSucceeds(t *testing.T) {
	s := New(nil, time.UTC).WithRetry(fastRetry())
	job := &countingJob{name: "daily_screen", schedule: "@daily", failN: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("daily_screen")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, int32(3), job.calls.Load())

	history, err := s.GetJobHistory("daily_screen")
	require.NoError(t, err)
	assert.Len(t, history.Results, 1)
}

func TestRunJobSync_ExhaustedAndPermanent(t *testing.T) {
	s := New(nil, time.UTC).WithRetry(fastRetry())
	flaky := &countingJob{name: "flaky", schedule: "@daily", failN: 10}
	busy := &countingJob{name: "busy", schedule: "@daily", failN: 10, perm: true}
	require.NoError(t, s.AddJob(flaky))
	require.NoError(t, s.AddJob(busy))

	result, err := s.RunJobSync("flaky")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, int32(3), flaky.calls.Load())

	result, _ = s.RunJobSync("busy")
	assert.False(t, result.Success)
	assert.Equal(t, int32(1), busy.calls.Load(), "permanent errors are not retried")

	stats := s.GetJobStats()
	assert.Equal(t, 1, stats["flaky"].FailureCount)
	assert.Equal(t, 0.0, stats["flaky"].SuccessRate)
	assert.Equal(t, "@daily", stats["busy"].Schedule)
}

func TestRunJob_UnknownJob(t *testing.T) {
	s := New(nil, time.UTC)
	assert.Error(t, s.RunJob("missing"))
	_, err := s.RunJobSync("missing")
	assert.Error(t, err)
	_, err = s.GetJobHistory("missing")
	assert.Error(t, err)
}

func TestRemoveJob(t *testing.T) {
	s := New(nil, time.UTC)
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Empty(t, s.GetJobStats())
	assert.Error(t, s.RemoveJob("a"))
}

func TestNextRun(t *testing.T) {
	s := New(nil, time.UTC)
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 30 15 * * *"}))

	s.Start()
	defer s.Stop()

	next, ok := s.NextRun("a")
	require.True(t, ok)
	assert.Equal(t, 15, next.Hour())
	assert.Equal(t, 30, next.Minute())
	assert.True(t, next.After(time.Now()))

	_, ok = s.NextRun("missing")
	assert.False(t, ok)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 120; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}

	assert.Len(t, h.Results, 100, "history keeps the last 100 results")
	assert.Len(t, h.GetLatestResults(10), 10)
	assert.Len(t, h.GetFailedResults(), 50)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Empty(t, (&JobHistory{}).GetLatestResults(5))
}

func TestJobHistory_LastTimes(t *testing.T) {
	h := &JobHistory{}
	assert.Nil(t, h.LastRun())
	assert.Nil(t, h.LastSuccess())

	t0 := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)
	h.AddResult(JobResult{StartTime: t0, Success: true})
	h.AddResult(JobResult{StartTime: t0.Add(time.Hour), Success: false})

	require.NotNil(t, h.LastSuccess())
	assert.Equal(t, t0, *h.LastSuccess())
	assert.Equal(t, t0.Add(time.Hour), *h.LastFailure())
	assert.Equal(t, t0.Add(time.Hour), *h.LastRun())
}
