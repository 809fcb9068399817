package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/livermore/internal/api"
	"github.com/wonny/livermore/internal/api/handlers"
	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/internal/scheduler"
	"github.com/wonny/livermore/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "排程管理",
	Long: `Runs the daily scan and the intraday alert refresh on cron schedules
(Asia/Taipei).

Jobs:
  daily_scan     SCHEDULE_SCAN   (default "0 30 14 * * 1-5")
  alert_refresh  SCHEDULE_ALERTS (default "0 0 9-13 * * 1-5")`,
}

var schedulerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler daemon",
	RunE:  runSchedulerStart,
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run [job]",
	Short: "Run one job now and exit",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedulerRun,
}

var schedulerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show job status of a running scheduler started with --serve",
	RunE:  runSchedulerStatus,
}

var (
	schedulerFixedList bool
	schedulerServe     bool
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)

	schedulerCmd.PersistentFlags().BoolVar(&schedulerFixedList, "list", false, "scan the criteria watchlist only")
	schedulerStartCmd.Flags().BoolVar(&schedulerServe, "serve", false, "also serve the snapshot API and /api/jobs")
}

func newScheduler(a *app) (*scheduler.Scheduler, error) {
	s := scheduler.New(a.log, contracts.Taipei)

	scanJob := jobs.NewDailyScanJob(a.orchestrator, a.universeSource(schedulerFixedList, nil), a.cfg.Schedule.Scan, a.log)
	if err := s.AddJob(scanJob); err != nil {
		return nil, err
	}
	alertJob := jobs.NewAlertRefreshJob(a.orchestrator, a.cfg.Schedule.Alerts, a.log)
	if err := s.AddJob(alertJob); err != nil {
		return nil, err
	}
	return s, nil
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	s, err := newScheduler(a)
	if err != nil {
		return err
	}
	s.Start()

	var (
		server *api.Server
		errCh  <-chan error
	)
	if schedulerServe {
		server, errCh = startAPI(a.cfg, a.log, api.WithJobs(handlers.NewJobsHandler(s)))
	}

	for _, name := range s.GetAllJobs() {
		next, _ := s.NextRun(name)
		fmt.Printf("  %-14s next run %s\n", name, next.In(contracts.Taipei).Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-quit:
	}

	s.Stop()
	if server != nil && serveErr == nil {
		return stopAPI(server, a.log)
	}
	return serveErr
}

func runSchedulerStatus(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadBase()
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://localhost:%s/api/jobs", cfg.Port)
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("scheduler not reachable at %s (started with --serve?): %w", url, err)
	}
	defer resp.Body.Close()

	var body struct {
		Jobs []scheduler.JobStats `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}

	PrintJobHeader("Scheduler Status", map[string]string{"Endpoint": url}, "Endpoint")
	for _, j := range body.Jobs {
		next := "-"
		if j.NextRun != nil {
			next = j.NextRun.In(contracts.Taipei).Format("01-02 15:04:05")
		}
		last := "never"
		if j.LastResult != nil {
			last = "ok"
			if !j.LastResult.Success {
				last = "failed: " + j.LastResult.Error
			}
		}
		fmt.Printf("  %-14s %-18s next %s  runs %d (fail %d)  last %s\n",
			j.JobName, j.Schedule, next, j.Runs, j.Failures, last)
	}
	return nil
}

func runSchedulerRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	s, err := newScheduler(a)
	if err != nil {
		return err
	}

	result, err := s.RunJobSync(args[0])
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("job %s failed: %s", result.JobName, result.Error)
	}
	fmt.Printf("✅ %s completed in %s\n", result.JobName, result.Duration)
	return nil
}
