package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failures int32 // fail this many times before succeeding
	calls    int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if n <= j.failures {
		return errors.New("upstream unavailable")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.Nop(), contracts.Taipei, WithRetry(2, time.Millisecond))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&countingJob{name: "daily_scan", schedule: "0 30 14 * * 1-5"}))
	assert.Error(t, s.AddJob(&countingJob{name: "daily_scan", schedule: "0 30 14 * * 1-5"}), "duplicate")
	assert.Error(t, s.AddJob(&countingJob{name: "bad", schedule: "not a cron"}))

	assert.Equal(t, []string{"daily_scan"}, s.GetAllJobs())
}

func TestNextRunUsesLocation(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "daily_scan", schedule: "0 30 14 * * 1-5"}))
	s.Start()
	defer s.Stop()

	next, err := s.NextRun("daily_scan")
	require.NoError(t, err)

	local := next.In(contracts.Taipei)
	assert.Equal(t, 14, local.Hour())
	assert.Equal(t, 30, local.Minute())
	assert.NotEqual(t, time.Saturday, local.Weekday())
	assert.NotEqual(t, time.Sunday, local.Weekday())
}

func TestRunJobSync_RetriesThenSucceeds(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "alert_refresh", schedule: "@hourly", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("alert_refresh")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls))

	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, TriggerManual, result.Trigger)

	recent, err := s.Recent("alert_refresh", 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].Success)
}

func TestRunJobSync_GivesUp(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "daily_scan", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("daily_scan")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "upstream unavailable", result.Error)
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls))

	stats := s.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, "daily_scan", stats[0].JobName)
	assert.Equal(t, 1, stats[0].Runs)
	assert.Equal(t, 1, stats[0].Failures)
	assert.NotNil(t, stats[0].LastFailure)
	assert.Nil(t, stats[0].LastSuccess)
	require.NotNil(t, stats[0].LastResult)
	assert.Equal(t, 3, stats[0].LastResult.Attempts)
}

func TestRunJobSync_StopCancelsRetryWait(t *testing.T) {
	s := New(logger.Nop(), contracts.Taipei, WithRetry(5, time.Hour))
	job := &countingJob{name: "daily_scan", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	done := make(chan JobResult, 1)
	go func() {
		r, _ := s.RunJobSync("daily_scan")
		done <- r
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&job.calls) == 1 }, time.Second, time.Millisecond)
	s.Stop()

	select {
	case r := <-done:
		assert.False(t, r.Success)
		assert.Equal(t, 1, r.Attempts)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not stop")
	}
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "daily_scan", schedule: "@daily"}))

	require.NoError(t, s.RemoveJob("daily_scan"))
	assert.Error(t, s.RemoveJob("daily_scan"))
	assert.Empty(t, s.GetAllJobs())
	assert.Empty(t, s.cron.Entries())

	_, err := s.RunJobSync("daily_scan")
	assert.Error(t, err)
}

func TestRunLog(t *testing.T) {
	var l runLog
	_, ok := l.last()
	assert.False(t, ok)
	assert.Empty(t, l.recent(5))

	base := time.Date(2025, 1, 2, 14, 30, 0, 0, contracts.Taipei)
	for i := 0; i < maxHistory+10; i++ {
		l.record(JobResult{Attempts: i, Success: i%2 == 0, StartTime: base.Add(time.Duration(i) * time.Minute)})
	}

	assert.Len(t, l.results, maxHistory)
	assert.Equal(t, maxHistory+10, l.runs)
	assert.Equal(t, (maxHistory+10)/2, l.failures)

	recent := l.recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, maxHistory+9, recent[0].Attempts)
	assert.Equal(t, maxHistory+7, recent[2].Attempts)

	last, ok := l.last()
	require.True(t, ok)
	assert.Equal(t, base.Add(time.Duration(maxHistory+9)*time.Minute), last.StartTime)
	assert.Equal(t, last.StartTime, l.lastFailure)
	assert.Equal(t, base.Add(time.Duration(maxHistory+8)*time.Minute), l.lastSuccess)
}

func TestPairs(t *testing.T) {
	assert.Equal(t, map[string]interface{}{"entry": 1, "now": "x"}, pairs([]interface{}{"entry", 1, "now", "x", "dangling"}))
}
