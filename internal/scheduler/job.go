package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Run executes the job once; the scheduler owns retries
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression.
	// Six fields, seconds first: "0 30 14 * * 1-5" (weekdays 14:30).
	// Descriptors such as "@daily" also work.
	Schedule() string
}

// Trigger tells what started a run
type Trigger string

const (
	TriggerCron   Trigger = "cron"
	TriggerManual Trigger = "manual"
)

// JobResult is the outcome of one run, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	Trigger   Trigger       `json:"trigger"`
	Attempts  int           `json:"attempts"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// maxHistory bounds the results kept per job
const maxHistory = 100

// runLog keeps the recent results of a job. Counters cover every run since
// the process started, not just the retained window.
type runLog struct {
	results     []JobResult
	runs        int
	failures    int
	lastSuccess time.Time
	lastFailure time.Time
}

func (l *runLog) record(r JobResult) {
	l.results = append(l.results, r)
	if len(l.results) > maxHistory {
		l.results = append(l.results[:0:0], l.results[len(l.results)-maxHistory:]...)
	}

	l.runs++
	if r.Success {
		l.lastSuccess = r.StartTime
	} else {
		l.failures++
		l.lastFailure = r.StartTime
	}
}

// recent returns up to n results, newest first
func (l *runLog) recent(n int) []JobResult {
	if n > len(l.results) || n <= 0 {
		n = len(l.results)
	}
	out := make([]JobResult, 0, n)
	for i := len(l.results) - 1; i >= len(l.results)-n; i-- {
		out = append(out, l.results[i])
	}
	return out
}

func (l *runLog) last() (JobResult, bool) {
	if len(l.results) == 0 {
		return JobResult{}, false
	}
	return l.results[len(l.results)-1], true
}

// JobStats summarizes a registered job for status output
type JobStats struct {
	JobName     string     `json:"job_name"`
	Schedule    string     `json:"schedule"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	Runs        int        `json:"runs"`
	Failures    int        `json:"failures"`
	LastResult  *JobResult `json:"last_result,omitempty"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastFailure *time.Time `json:"last_failure,omitempty"`
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
