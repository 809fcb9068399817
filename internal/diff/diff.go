// Package diff compares a run's results with the previously published
// snapshot.
package diff

import (
	"sort"

	"github.com/wonny/livermore/internal/contracts"
)

// Diff partitions current against prev into new, continued and removed.
//
// When prev was written earlier on the same day, it already carries that
// run's diff against the day before. The comparison base is then rebuilt as
// (prev tickers − prev new) ∪ prev removed, so repeated runs within one day
// keep reporting against the previous trading day.
func Diff(prev *contracts.Snapshot, current []contracts.ScanResult, today string) contracts.Changes {
	base := baseline(prev, today)

	changes := contracts.Changes{
		New:       []contracts.ScanResult{},
		Continued: []contracts.ScanResult{},
		Removed:   []contracts.ScanResult{},
	}

	seen := make(map[string]bool, len(current))
	for _, r := range current {
		if seen[r.Ticker] {
			continue
		}
		seen[r.Ticker] = true

		if _, ok := base[r.Ticker]; ok {
			changes.Continued = append(changes.Continued, r)
		} else {
			changes.New = append(changes.New, r)
		}
	}

	for ticker, r := range base {
		if !seen[ticker] {
			changes.Removed = append(changes.Removed, r)
		}
	}

	byTicker(changes.New)
	byTicker(changes.Continued)
	byTicker(changes.Removed)
	return changes
}

// baseline returns the ticker set the current run is compared against
func baseline(prev *contracts.Snapshot, today string) map[string]contracts.ScanResult {
	base := make(map[string]contracts.ScanResult)
	if prev == nil {
		return base
	}

	for _, r := range prev.Stocks {
		base[r.Ticker] = r
	}
	if prev.Date != today {
		return base
	}

	for _, r := range prev.Changes.New {
		delete(base, r.Ticker)
	}
	for _, r := range prev.Changes.Removed {
		base[r.Ticker] = r
	}
	return base
}

// SortResults orders results by signal priority descending, ties by ticker
func SortResults(results []contracts.ScanResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Signal.Priority != results[j].Signal.Priority {
			return results[i].Signal.Priority > results[j].Signal.Priority
		}
		return results[i].Ticker < results[j].Ticker
	})
}

func byTicker(results []contracts.ScanResult) {
	sort.Slice(results, func(i, j int) bool { return results[i].Ticker < results[j].Ticker })
}
