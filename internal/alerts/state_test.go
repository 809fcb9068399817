package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/livermore/internal/contracts"
)

var now = time.Date(2025, 1, 10, 14, 30, 0, 0, contracts.Taipei)

func d(s string) time.Time {
	t, err := contracts.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func warning(ticker, date string) contracts.WarningNotice {
	return contracts.WarningNotice{Ticker: ticker, Date: d(date), Reason: "漲幅過大", Market: contracts.MarketTWSE}
}

func TestBuildState_WarningActiveOnlyWhenRecent(t *testing.T) {
	state := BuildState([]contracts.WarningNotice{
		warning("2330", "2025-01-09"),
		warning("2454", "2025-01-07"),
		warning("3008", "2025-01-11"),
	}, nil, now)

	require.Len(t, state, 3)
	assert.True(t, state["2330"].Active)
	assert.Equal(t, "2025-01-09", state["2330"].Date)
	assert.False(t, state["2454"].Active)
	assert.True(t, state["3008"].Active)
	assert.Equal(t, []string{"2025-01-07"}, state["2454"].History)
}

func TestBuildState_HistoryAccumulatesSortedAndUnique(t *testing.T) {
	state := BuildState([]contracts.WarningNotice{
		warning("2330", "2025-01-09"),
		warning("2330", "2024-12-02"),
		warning("2330", "2025-01-09"),
		warning("2330", "2025-01-06"),
	}, nil, now)

	assert.Equal(t, []string{"2024-12-02", "2025-01-06", "2025-01-09"}, state["2330"].History)
}

func TestBuildState_DispositionOverridesWarning(t *testing.T) {
	state := BuildState(
		[]contracts.WarningNotice{warning("6669", "2025-01-09"), warning("6669", "2025-01-08"), warning("6669", "2025-01-07")},
		[]contracts.DispositionNotice{{Ticker: "6669", Start: d("2025-01-03"), End: d("2025-01-16"), Measure: "每五分鐘撮合一次"}},
		now,
	)

	rec := state["6669"]
	require.NotNil(t, rec)
	assert.Equal(t, contracts.AlertDisposition, rec.Type)
	assert.True(t, rec.IsDisposed())
	assert.Equal(t, "2025-01-03 ~ 2025-01-16", rec.Period)
	assert.Equal(t, "每五分鐘撮合一次", rec.Reason)
	assert.Equal(t, "處置", rec.Badge)
	assert.Equal(t, "red", rec.Color)
	// disposed tickers skip frequency scoring
	assert.Zero(t, rec.Risk.Count6)
	assert.Len(t, rec.History, 3)
}

func TestBuildState_DispositionTolerance(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		end    string
		active bool
	}{
		{"inside", "2025-01-06", "2025-01-17", true},
		{"ended yesterday", "2024-12-27", "2025-01-09", true},
		{"starts tomorrow", "2025-01-11", "2025-01-24", true},
		{"ended two days ago", "2024-12-20", "2025-01-08", false},
		{"starts in two days", "2025-01-12", "2025-01-24", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := BuildState(nil, []contracts.DispositionNotice{{Ticker: "3105", Start: d(tt.start), End: d(tt.end)}}, now)
			assert.Equal(t, tt.active, state.IsDisposed("3105"))
		})
	}
}

func TestAssessRisk(t *testing.T) {
	tests := []struct {
		name    string
		history []string
		level   contracts.RiskLevel
		count6  int
		count30 int
		message bool
	}{
		{"clean", nil, contracts.RiskLow, 0, 0, false},
		{"one recent", []string{"2025-01-09"}, contracts.RiskLow, 1, 1, false},
		{"two recent", []string{"2025-01-08", "2025-01-09"}, contracts.RiskMedium, 2, 2, true},
		{"three recent", []string{"2025-01-02", "2025-01-08", "2025-01-09"}, contracts.RiskHigh, 3, 3, true},
		{"outside 10 days", []string{"2024-12-29", "2024-12-30"}, contracts.RiskLow, 0, 2, false},
		{"cutoff day counts", []string{"2024-12-31", "2025-01-09"}, contracts.RiskMedium, 2, 2, true},
		{
			"ten in thirty",
			[]string{"2024-12-11", "2024-12-12", "2024-12-13", "2024-12-16", "2024-12-17", "2024-12-18", "2024-12-19", "2024-12-20", "2024-12-23", "2025-01-09"},
			contracts.RiskHigh, 1, 10, true,
		},
		{"older than thirty ignored", []string{"2024-12-01"}, contracts.RiskLow, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk := AssessRisk(tt.history, now)
			assert.Equal(t, tt.level, risk.Level)
			assert.Equal(t, tt.count6, risk.Count6)
			assert.Equal(t, tt.count30, risk.Count30)
			assert.Equal(t, tt.message, risk.Message != "")
		})
	}
}

func TestAssessRisk_MonthlyOverridesMedium(t *testing.T) {
	history := []string{
		"2024-12-12", "2024-12-13", "2024-12-16", "2024-12-17", "2024-12-18",
		"2024-12-19", "2024-12-20", "2024-12-23", "2025-01-08", "2025-01-09",
	}
	risk := AssessRisk(history, now)
	assert.Equal(t, contracts.RiskHigh, risk.Level)
	assert.Equal(t, 2, risk.Count6)
	assert.Contains(t, risk.Message, "30日內12次")
}

func TestBuildState_DisplayFields(t *testing.T) {
	state := BuildState([]contracts.WarningNotice{
		warning("2330", "2025-01-09"),
		warning("2454", "2025-01-02"),
		warning("2454", "2025-01-03"),
	}, nil, now)

	active := state["2330"]
	assert.Equal(t, "注意", active.Badge)
	assert.Equal(t, "yellow", active.Color)
	assert.Contains(t, active.Info, "漲幅過大")
	assert.True(t, active.Surfaced())

	stale := state["2454"]
	assert.False(t, stale.Active)
	assert.Equal(t, contracts.RiskMedium, stale.Risk.Level)
	assert.True(t, stale.Surfaced())
	assert.Equal(t, stale.Risk.Message, stale.Detail)
}
