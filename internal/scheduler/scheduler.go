package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/livermore/pkg/logger"
)

// registration is a job plus its cron entry and run log
type registration struct {
	job   Job
	entry cron.EntryID
	runs  runLog
}

// Scheduler runs jobs on cron schedules in exchange time
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger

	mu   sync.RWMutex
	jobs map[string]*registration

	maxRetries int
	retryDelay time.Duration

	// cancelled on Stop so running jobs wind down
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRetry overrides the retry policy
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(s *Scheduler) {
		s.maxRetries = maxRetries
		s.retryDelay = delay
	}
}

// New creates a scheduler. Cron expressions carry a seconds field and are
// evaluated in loc. A cron tick that lands while the same job is still
// running is skipped.
func New(log *logger.Logger, loc *time.Location, opts ...Option) *Scheduler {
	log = log.WithModule("scheduler")
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})),
		),
		logger:     log,
		jobs:       make(map[string]*registration),
		maxRetries: 2,
		retryDelay: time.Minute,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob registers job under its name
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	reg := &registration{job: job}
	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(reg, TriggerCron)
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, job.Schedule(), err)
	}
	reg.entry = id
	s.jobs[name] = reg

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job registered")

	return nil
}

// RemoveJob unregisters a job and drops its cron entry
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(reg.entry)
	delete(s.jobs, name)
	s.logger.WithField("job", name).Info("Job unregistered")

	return nil
}

// Start starts the cron loop in the background
func (s *Scheduler) Start() {
	s.logger.WithField("jobs", len(s.jobs)).Info("Scheduler started")
	s.cron.Start()
}

// Stop stops the cron loop, cancels running jobs and waits for them
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) lookup(name string) (*registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, exists := s.jobs[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return reg, nil
}

// NextRun returns the next scheduled time of a job. It is zero until Start.
func (s *Scheduler) NextRun(name string) (time.Time, error) {
	reg, err := s.lookup(name)
	if err != nil {
		return time.Time{}, err
	}
	return s.cron.Entry(reg.entry).Next, nil
}

// RunJob triggers a job now in the background
func (s *Scheduler) RunJob(name string) error {
	reg, err := s.lookup(name)
	if err != nil {
		return err
	}
	go s.runJob(reg, TriggerManual)
	return nil
}

// RunJobSync runs a job on the calling goroutine and returns its result
func (s *Scheduler) RunJobSync(name string) (JobResult, error) {
	reg, err := s.lookup(name)
	if err != nil {
		return JobResult{}, err
	}
	return s.runJob(reg, TriggerManual), nil
}

// runJob runs a job up to maxRetries+1 times, waiting retryDelay in between
func (s *Scheduler) runJob(reg *registration, trigger Trigger) JobResult {
	s.wg.Add(1)
	defer s.wg.Done()

	name := reg.job.Name()
	log := s.logger.WithFields(map[string]interface{}{
		"job":     name,
		"trigger": string(trigger),
	})
	log.Info("Job started")

	result := JobResult{JobName: name, Trigger: trigger, StartTime: time.Now()}

	var err error
retry:
	for result.Attempts <= s.maxRetries {
		result.Attempts++
		if err = reg.job.Run(s.ctx); err == nil {
			break
		}

		log.WithFields(map[string]interface{}{
			"attempt": result.Attempts,
			"error":   err.Error(),
		}).Warn("Job attempt failed")

		if result.Attempts > s.maxRetries {
			break
		}
		select {
		case <-time.After(s.retryDelay):
		case <-s.ctx.Done():
			break retry
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
	}

	s.mu.Lock()
	reg.runs.record(result)
	s.mu.Unlock()

	log = log.WithFields(map[string]interface{}{
		"attempts": result.Attempts,
		"duration": result.Duration.String(),
	})
	if result.Success {
		log.Info("Job completed")
	} else {
		log.WithField("error", result.Error).Error("Job failed after all retries")
	}

	return result
}

// Recent returns up to n results of a job, newest first. n <= 0 returns all.
func (s *Scheduler) Recent(name string, n int) ([]JobResult, error) {
	reg, err := s.lookup(name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return reg.runs.recent(n), nil
}

// GetAllJobs returns all registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats returns one JobStats per registered job, sorted by name
func (s *Scheduler) Stats() []JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobStats, 0, len(s.jobs))
	for name, reg := range s.jobs {
		st := JobStats{
			JobName:     name,
			Schedule:    reg.job.Schedule(),
			NextRun:     timeOrNil(s.cron.Entry(reg.entry).Next),
			Runs:        reg.runs.runs,
			Failures:    reg.runs.failures,
			LastSuccess: timeOrNil(reg.runs.lastSuccess),
			LastFailure: timeOrNil(reg.runs.lastFailure),
		}
		if last, ok := reg.runs.last(); ok {
			st.LastResult = &last
		}
		out = append(out, st)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].JobName < out[j].JobName })
	return out
}

// cronLogger routes robfig/cron's own messages into our logger
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.WithFields(pairs(keysAndValues)).Debug("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.WithError(err).WithFields(pairs(keysAndValues)).Error("cron: " + msg)
}

func pairs(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
