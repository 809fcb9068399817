package contracts

import (
	"sort"
	"time"
)

// DateLayout is the date format used in every emitted document
const DateLayout = "2006-01-02"

// Taipei is the exchange's wall clock (UTC+8, no DST)
var Taipei = time.FixedZone("Asia/Taipei", 8*60*60)

// Day truncates t to its Taipei calendar date, returned as UTC midnight so
// that dates from every upstream compare with ==.
func Day(t time.Time) time.Time {
	y, m, d := t.In(Taipei).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into the same form Day returns
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// PriceBar is one daily candle. Volume is in board lots (1 lot = 1000 shares).
// ⭐ SSOT: 모든 provider는 이 형태로 정규화
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"` // lots
}

// PriceSeries is ordered ascending by date; non-trading days are absent
type PriceSeries []PriceBar

// Len returns the number of bars
func (s PriceSeries) Len() int { return len(s) }

// Last returns the most recent bar
func (s PriceSeries) Last() PriceBar { return s[len(s)-1] }

// Closes returns the close column
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Opens returns the open column
func (s PriceSeries) Opens() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Open
	}
	return out
}

// Highs returns the high column
func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

// Lows returns the low column
func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the volume column as floats
func (s PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = float64(b.Volume)
	}
	return out
}

// Between returns the bars with start <= date <= end, sorted and deduplicated by date
func (s PriceSeries) Between(start, end time.Time) PriceSeries {
	start, end = Day(start), Day(end)
	seen := make(map[time.Time]bool, len(s))
	out := make(PriceSeries, 0, len(s))
	for _, b := range s {
		if b.Date.Before(start) || b.Date.After(end) || seen[b.Date] {
			continue
		}
		seen[b.Date] = true
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
