package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/livermore/internal/scan"
	"github.com/wonny/livermore/pkg/logger"
)

// AlertRefreshJob overlays fresh alert feeds on the published snapshot
// during the session
type AlertRefreshJob struct {
	scanner  Scanner
	schedule string
	logger   *logger.Logger
}

// NewAlertRefreshJob creates a new alert refresh job
func NewAlertRefreshJob(scanner Scanner, schedule string, log *logger.Logger) *AlertRefreshJob {
	return &AlertRefreshJob{
		scanner:  scanner,
		schedule: schedule,
		logger:   log.WithModule("job.alert_refresh"),
	}
}

// Name returns the job name
func (j *AlertRefreshJob) Name() string {
	return "alert_refresh"
}

// Schedule returns the cron schedule
func (j *AlertRefreshJob) Schedule() string {
	return j.schedule
}

// Run refreshes alerts. Nothing published yet is not a failure.
func (j *AlertRefreshJob) Run(ctx context.Context) error {
	snap, err := j.scanner.RefreshAlerts(ctx)
	if errors.Is(err, scan.ErrNoSnapshot) {
		j.logger.Info("No snapshot yet, skipping alert refresh")
		return nil
	}
	if err != nil {
		return fmt.Errorf("refresh alerts: %w", err)
	}

	j.logger.WithField("stocks", len(snap.Stocks)).Info("Scheduled alert refresh finished")
	return nil
}
