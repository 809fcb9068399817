package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "突破掃描並發布快照",
	Long: `Runs one breakout scan and writes the snapshot.

Modes:
  (default)   full market: every TWSE + TPEx common stock
  --list      fixed list: the watchlist of the criteria file
  --tickers   ad-hoc list: comma separated tickers

Without a provider credential the full market is truncated to the
SCAN_UNIVERSE_LIMIT largest stocks by market cap.

Example:
  go run ./cmd/livermore scan
  go run ./cmd/livermore scan --list
  go run ./cmd/livermore scan --tickers 2330,2317`,
	RunE: runScan,
}

var (
	scanFixedList bool
	scanTickers   string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolVar(&scanFixedList, "list", false, "scan the criteria watchlist only")
	scanCmd.Flags().StringVar(&scanTickers, "tickers", "", "scan these tickers only (comma separated)")
}

func runScan(cmd *cobra.Command, args []string) error {
	started := time.Now()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode := "full market"
	tickers := splitTickers(scanTickers)
	switch {
	case len(tickers) > 0:
		mode = "tickers"
	case scanFixedList:
		mode = "watchlist"
	}

	PrintJobHeader("Livermore Breakout Scan", map[string]string{
		"Mode":     mode,
		"Provider": a.cfg.Provider,
		"Output":   a.store.CurrentPath(),
	}, "Mode", "Provider", "Output")

	u, err := a.universeSource(scanFixedList, tickers).Load(ctx)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}
	fmt.Printf("[Scan] %d stocks in universe\n", u.Count())

	snap, err := a.orchestrator.Run(ctx, u)
	if err != nil {
		return err
	}

	PrintSnapshotSummary(snap)
	PrintCompleted(started)
	return nil
}
