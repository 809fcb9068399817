package scanconfig

import (
	"github.com/wonny/livermore/internal/signals"
)

// Config is the scan criteria file
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Breakout  Breakout  `yaml:"breakout" json:"breakout"`
	Output    Output    `yaml:"output" json:"output"`
	Watchlist Watchlist `yaml:"watchlist" json:"watchlist"`
}

// Meta 기준 메타 정보
type Meta struct {
	CriteriaID  string `yaml:"criteria_id" json:"criteria_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
}

// Breakout thresholds of the Livermore key-point rule
type Breakout struct {
	LookbackDays         int     `yaml:"lookback_days" json:"lookback_days"`
	StopLossPct          float64 `yaml:"stop_loss_pct" json:"stop_loss_pct"`
	FlatBarMinVolumeLots int64   `yaml:"flat_bar_min_volume_lots" json:"flat_bar_min_volume_lots"`
	MinBullishStreak     int     `yaml:"min_bullish_streak" json:"min_bullish_streak"`
	RangeVolatilityMax   float64 `yaml:"range_volatility_max" json:"range_volatility_max"`
}

// Output shapes the emitted result
type Output struct {
	OHLCWindow int `yaml:"ohlc_window" json:"ohlc_window"`
}

// Watchlist is the fixed-list mode universe
type Watchlist struct {
	Tickers []string `yaml:"tickers" json:"tickers"`
}

// Default returns the production criteria
func Default() *Config {
	p := signals.DefaultParams()
	return &Config{
		Meta: Meta{
			CriteriaID:  "livermore_breakout",
			Version:     "1",
			Description: "利弗摩爾關鍵點：突破 20 日新高、站上所有均線、連續紅 K",
		},
		Breakout: Breakout{
			LookbackDays:         p.LookbackDays,
			StopLossPct:          p.StopLossPct,
			FlatBarMinVolumeLots: p.FlatBarMinVolume,
			MinBullishStreak:     p.MinBullishStreak,
			RangeVolatilityMax:   p.RangeVolatilityMax,
		},
		Output: Output{OHLCWindow: p.OHLCWindow},
		Watchlist: Watchlist{
			Tickers: []string{"2330", "2317", "2454", "2308", "2382", "2881", "2882", "2603", "3008", "6505"},
		},
	}
}

// Params converts the file into evaluator thresholds
func (c *Config) Params() signals.Params {
	return signals.Params{
		LookbackDays:       c.Breakout.LookbackDays,
		StopLossPct:        c.Breakout.StopLossPct,
		FlatBarMinVolume:   c.Breakout.FlatBarMinVolumeLots,
		MinBullishStreak:   c.Breakout.MinBullishStreak,
		RangeVolatilityMax: c.Breakout.RangeVolatilityMax,
		OHLCWindow:         c.Output.OHLCWindow,
	}
}
