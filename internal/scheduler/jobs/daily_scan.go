package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/pkg/logger"
)

// Scanner is the scan orchestrator as seen by jobs
type Scanner interface {
	Run(ctx context.Context, u *contracts.Universe) (*contracts.Snapshot, error)
	RefreshAlerts(ctx context.Context) (*contracts.Snapshot, error)
}

// DailyScanJob runs the full scan after the close
// ⭐ SSOT: 每日掃描排程只在這個 Job
type DailyScanJob struct {
	scanner  Scanner
	universe contracts.UniverseSource
	schedule string
	logger   *logger.Logger
}

// NewDailyScanJob creates a new daily scan job
func NewDailyScanJob(scanner Scanner, universe contracts.UniverseSource, schedule string, log *logger.Logger) *DailyScanJob {
	return &DailyScanJob{
		scanner:  scanner,
		universe: universe,
		schedule: schedule,
		logger:   log.WithModule("job.daily_scan"),
	}
}

// Name returns the job name
func (j *DailyScanJob) Name() string {
	return "daily_scan"
}

// Schedule returns the cron schedule (weekdays after the 13:30 close by default)
func (j *DailyScanJob) Schedule() string {
	return j.schedule
}

// Run loads the universe and scans it
func (j *DailyScanJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled scan")

	u, err := j.universe.Load(ctx)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	snap, err := j.scanner.Run(ctx, u)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"date":    snap.Date,
		"signals": snap.Summary.BuySignals,
		"new":     snap.Summary.Counts.New,
	}).Info("Scheduled scan finished")

	return nil
}
