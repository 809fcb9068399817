package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/livermore/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	ruleHeavy = "═══════════════════════════════════════════════════════════"
	ruleLight = "───────────────────────────────────────────────────────────"
)

// PrintJobHeader prints a formatted job header
func PrintJobHeader(title string, lines map[string]string, order ...string) {
	fmt.Println()
	fmt.Println(ruleHeavy)
	fmt.Printf("  %s\n", title)
	fmt.Println(ruleLight)
	for _, k := range order {
		if v, ok := lines[k]; ok && v != "" {
			fmt.Printf("  %-10s: %s\n", k, v)
		}
	}
	fmt.Println(ruleLight)
}

// PrintSnapshotSummary prints the headline numbers and the ranked list
func PrintSnapshotSummary(snap *contracts.Snapshot) {
	ms := snap.MarketStats
	fmt.Printf("  Date      : %s\n", snap.Date)
	fmt.Printf("  Scanned   : %d (▲%d ▼%d ─%d)\n", ms.TotalScanned, ms.Up, ms.Down, ms.Flat)
	fmt.Printf("  Signals   : %d (new %d / continued %d / removed %d)\n",
		snap.Summary.Total, snap.Summary.Counts.New, snap.Summary.Counts.Continued, snap.Summary.Counts.Removed)
	fmt.Println(ruleLight)

	for i, s := range snap.Stocks {
		flags := make([]string, 0, 2)
		if !s.CanDayTrade {
			flags = append(flags, "不可當沖")
		}
		if s.Alert != nil {
			flags = append(flags, s.Alert.Badge)
		}
		fmt.Printf("  %2d. %-6s %-8s %9.2f %+6.2f%%  紅K×%-2d  P%-3d %s\n",
			i+1, s.Ticker, s.Name, s.CurrentPrice, s.ChangePct, s.ConsecutiveRed, s.Signal.Priority, strings.Join(flags, " "))
	}

	if len(snap.Changes.Removed) > 0 {
		fmt.Println(ruleLight)
		fmt.Printf("  Removed   : %s\n", strings.Join(contracts.TickersOf(snap.Changes.Removed), ", "))
	}
}

// PrintCompleted prints the closing line of a job
func PrintCompleted(started time.Time) {
	fmt.Println()
	fmt.Printf("✅ Completed in %.2fs\n", time.Since(started).Seconds())
}

// splitTickers parses "2330,2317 2454" into tickers
func splitTickers(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.ToUpper(strings.TrimSpace(f)))
	}
	return out
}
