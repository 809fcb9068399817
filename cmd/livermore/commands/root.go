package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "livermore",
	Short: "利弗摩爾關鍵點突破掃描器",
	Long: `Livermore breakout scanner for TWSE / TPEx equities.

Scans the market after the close for stocks breaking their 20-day high,
above every moving average with consecutive bullish candles, cross-checks
注意股 / 處置股 announcements and publishes a dated JSON snapshot.

Usage:
  go run ./cmd/livermore [command]

Examples:
  go run ./cmd/livermore scan
  go run ./cmd/livermore scan --list
  go run ./cmd/livermore alerts refresh
  go run ./cmd/livermore snapshot show 2025-01-02
  go run ./cmd/livermore serve
  go run ./cmd/livermore scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
