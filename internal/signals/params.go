package signals

// Params are the tunable thresholds of the breakout rule
type Params struct {
	LookbackDays       int     // N in "N-day high"
	StopLossPct        float64 // money-management stop below the close
	FlatBarMinVolume   int64   // lots; flat bars below this break the streak
	MinBullishStreak   int
	RangeVolatilityMax float64 // 20-bar stdev/mean below this tags range-breakout
	OHLCWindow         int
}

// DefaultParams returns the production thresholds
func DefaultParams() Params {
	return Params{
		LookbackDays:       20,
		StopLossPct:        0.10,
		FlatBarMinVolume:   100,
		MinBullishStreak:   2,
		RangeVolatilityMax: 0.05,
		OHLCWindow:         30,
	}
}

// Priority scoring
const (
	BasePriority          = 90
	RangeBreakoutBonus    = 5
	ActiveAlertBonus      = 10
	volatilityWindow      = 20
	TagBreakout           = "breakout"
	TagAboveAllMA         = "above-all-ma"
	TagRangeBreakout      = "range-breakout"
	TagAlert              = "alert"
	TagDisposition        = "disposition"
	SignalTypeBuy         = "buy"
	SignalTypeBuyWithRisk = "buy_with_alert"
)
