package contracts

import "time"

// ScanTypeBreakout identifies the scan that produced a snapshot
const ScanTypeBreakout = "livermore_breakout"

// Criteria records the rule parameters a snapshot was produced with
type Criteria struct {
	LookbackDays int    `json:"lookbackDays"`
	Description  string `json:"description"`
	Hash         string `json:"hash,omitempty"`
}

// MarketStats is market breadth over every successfully scanned ticker
type MarketStats struct {
	Up           int `json:"up"`
	Down         int `json:"down"`
	Flat         int `json:"flat"`
	TotalScanned int `json:"total_scanned"`
}

// Record counts one changePct into the breadth
func (m *MarketStats) Record(changePct float64) {
	switch {
	case changePct > 0:
		m.Up++
	case changePct < 0:
		m.Down++
	default:
		m.Flat++
	}
	m.TotalScanned++
}

// Changes partitions results against the previous snapshot
type Changes struct {
	New       []ScanResult `json:"new"`
	Continued []ScanResult `json:"continued"`
	Removed   []ScanResult `json:"removed"`
}

// ChangeCounts are the sizes of Changes
type ChangeCounts struct {
	New       int `json:"new"`
	Continued int `json:"continued"`
	Removed   int `json:"removed"`
}

// Summary holds headline counts
type Summary struct {
	Total      int          `json:"total"`
	BuySignals int          `json:"buySignals"`
	Counts     ChangeCounts `json:"counts"`
}

// Snapshot is the document one run publishes
// ⭐ SSOT: daily_recommendations.json / history/{date}.json
type Snapshot struct {
	Date        string       `json:"date"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	RunID       string       `json:"runId,omitempty"`
	ScanType    string       `json:"scanType"`
	Provider    string       `json:"provider,omitempty"`
	Criteria    Criteria     `json:"criteria"`
	Stocks      []ScanResult `json:"stocks"`
	MarketStats MarketStats  `json:"marketStats"`
	Summary     Summary      `json:"summary"`
	Changes     Changes      `json:"changes"`
}

// Tickers returns the tickers of Stocks
func (s *Snapshot) Tickers() []string {
	return TickersOf(s.Stocks)
}

// Summarize recomputes Summary from Stocks and Changes
func (s *Snapshot) Summarize() {
	s.Summary = Summary{
		Total:      len(s.Stocks),
		BuySignals: len(s.Stocks),
		Counts: ChangeCounts{
			New:       len(s.Changes.New),
			Continued: len(s.Changes.Continued),
			Removed:   len(s.Changes.Removed),
		},
	}
}

// TickersOf lists the tickers of results in order
func TickersOf(results []ScanResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Ticker
	}
	return out
}
