package contracts

import "time"

// AlertType distinguishes the two regulatory feeds
type AlertType string

const (
	AlertWarning     AlertType = "warning"     // 注意股
	AlertDisposition AlertType = "disposition" // 處置股
)

// RiskLevel is the derived disposition risk of a warned ticker
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// WarningNotice is one row of a 注意股 feed
type WarningNotice struct {
	Ticker string
	Name   string
	Market Market
	Date   time.Time
	Reason string
}

// DispositionNotice is one row of a 處置股 feed
type DispositionNotice struct {
	Ticker  string
	Name    string
	Market  Market
	Start   time.Time
	End     time.Time
	Measure string
}

// RiskAssessment summarizes how close a ticker is to disposition
type RiskAssessment struct {
	Level   RiskLevel `json:"level"`
	Message string    `json:"message,omitempty"`
	Count6  int       `json:"count6"`  // alerts within ~6 sessions
	Count30 int       `json:"count30"` // alerts within 30 calendar days
}

// AlertRecord is the merged alert state of one ticker
// ⭐ SSOT: 每次抓取都完整重建, 不做增量合併
type AlertRecord struct {
	Type    AlertType      `json:"type"`
	Active  bool           `json:"active"`
	Reason  string         `json:"reason"`
	Period  string         `json:"period,omitempty"`
	Date    string         `json:"date,omitempty"` // most recent trigger
	History []string       `json:"history"`
	Risk    RiskAssessment `json:"risk"`

	// card display
	Badge  string `json:"badge"`
	Color  string `json:"color"`
	Info   string `json:"info"`
	Detail string `json:"detail"`
}

// IsDisposed reports an active disposition
func (a *AlertRecord) IsDisposed() bool {
	return a != nil && a.Active && a.Type == AlertDisposition
}

// Surfaced reports whether the record belongs on a scan result
func (a *AlertRecord) Surfaced() bool {
	if a == nil {
		return false
	}
	return a.Active || a.Risk.Level == RiskMedium || a.Risk.Level == RiskHigh
}

// AlertState maps ticker to its alert record
type AlertState map[string]*AlertRecord

// Get returns the record for ticker or nil
func (s AlertState) Get(ticker string) *AlertRecord {
	if s == nil {
		return nil
	}
	return s[ticker]
}

// IsDisposed reports whether ticker is under an active disposition
func (s AlertState) IsDisposed(ticker string) bool {
	return s.Get(ticker).IsDisposed()
}
