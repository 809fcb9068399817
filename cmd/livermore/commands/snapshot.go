package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/internal/snapshot"
)

// snapshotCmd groups snapshot inspection commands
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "快照查詢",
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show [date]",
	Short: "Print the current snapshot, or the history copy of date",
	Long: `Prints a published snapshot as JSON.

Example:
  go run ./cmd/livermore snapshot show
  go run ./cmd/livermore snapshot show 2025-01-02 --color
  go run ./cmd/livermore snapshot show --summary`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshotShow,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the dates with a history copy",
	RunE:  runSnapshotList,
}

var (
	snapshotColor   bool
	snapshotSummary bool
)

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotCmd.AddCommand(snapshotListCmd)

	snapshotShowCmd.Flags().BoolVar(&snapshotColor, "color", false, "colorize JSON output")
	snapshotShowCmd.Flags().BoolVar(&snapshotSummary, "summary", false, "print the ranked summary instead of JSON")
}

func openStore() (*snapshot.Store, error) {
	cfg, log, err := loadBase()
	if err != nil {
		return nil, err
	}
	return snapshot.NewStore(cfg.Scan.OutputDir, log), nil
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	var snap *contracts.Snapshot
	if len(args) == 1 {
		snap, err = store.LoadHistory(args[0])
	} else {
		snap, err = store.LoadCurrent()
	}
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("no snapshot in %s", store.Dir())
	}

	if snapshotSummary {
		PrintJobHeader("Snapshot", map[string]string{"Run": snap.RunID, "Provider": snap.Provider}, "Run", "Provider")
		PrintSnapshotSummary(snap)
		return nil
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	out := pretty.Pretty(data)
	if snapshotColor {
		out = pretty.Color(out, nil)
	}
	_, err = os.Stdout.Write(out)
	return err
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	dates, err := store.ListHistory()
	if err != nil {
		return err
	}
	for _, d := range dates {
		fmt.Println(d)
	}
	return nil
}
