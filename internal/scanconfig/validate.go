package scanconfig

import (
	"fmt"
	"regexp"
)

var tickerPattern = regexp.MustCompile(`^[0-9A-Z]{4,6}$`)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	if cfg.Meta.CriteriaID == "" {
		return ValidationError{"meta.criteria_id", "required"}
	}

	b := cfg.Breakout
	if b.LookbackDays < 1 {
		return ValidationError{"breakout.lookback_days", "must be >= 1"}
	}
	if b.StopLossPct <= 0 || b.StopLossPct >= 1 {
		return ValidationError{"breakout.stop_loss_pct", "must be in (0, 1)"}
	}
	if b.FlatBarMinVolumeLots < 0 {
		return ValidationError{"breakout.flat_bar_min_volume_lots", "must be >= 0"}
	}
	if b.MinBullishStreak < 1 {
		return ValidationError{"breakout.min_bullish_streak", "must be >= 1"}
	}
	if b.RangeVolatilityMax < 0 {
		return ValidationError{"breakout.range_volatility_max", "must be >= 0"}
	}

	if cfg.Output.OHLCWindow < 1 {
		return ValidationError{"output.ohlc_window", "must be >= 1"}
	}

	for i, t := range cfg.Watchlist.Tickers {
		if !tickerPattern.MatchString(t) {
			return ValidationError{fmt.Sprintf("watchlist.tickers[%d]", i), fmt.Sprintf("invalid ticker %q", t)}
		}
	}

	return nil
}
