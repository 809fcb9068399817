package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/livermore/internal/scan"
)

// alertsCmd groups alert commands
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "注意股 / 處置股",
}

var alertsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "只更新快照上的警示資訊",
	Long: `Re-fetches the TWSE and TPEx warning / disposition feeds and overlays
them on the current snapshot without fetching any prices.

Example:
  go run ./cmd/livermore alerts refresh`,
	RunE: runAlertsRefresh,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsRefreshCmd)
}

func runAlertsRefresh(cmd *cobra.Command, args []string) error {
	started := time.Now()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	snap, err := a.orchestrator.RefreshAlerts(context.Background())
	if errors.Is(err, scan.ErrNoSnapshot) {
		fmt.Println("No snapshot published yet, run `livermore scan` first")
		return nil
	}
	if err != nil {
		return err
	}

	PrintJobHeader("Alert Refresh", map[string]string{"Output": a.store.CurrentPath()}, "Output")
	PrintSnapshotSummary(snap)
	PrintCompleted(started)
	return nil
}
