package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/pkg/logger"
)

var testStock = contracts.Stock{Ticker: "2330", Name: "台積電", Market: contracts.MarketTWSE, Sector: "半導體業"}

// flatSeries returns n doji bars at price with the given volume (lots)
func flatSeries(n int, price float64, volume int64) contracts.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(contracts.PriceSeries, n)
	for i := range series {
		series[i] = contracts.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: volume,
		}
	}
	return series
}

// breakoutSeries is 70 flat bars at 10, a configurable flat bar, then a
// breakout bar closing at 11.
func breakoutSeries(prevVolume int64) contracts.PriceSeries {
	series := flatSeries(72, 10, 200)
	series[70].Volume = prevVolume
	series[71] = contracts.PriceBar{
		Date:   series[71].Date,
		Open:   10.5,
		High:   11,
		Low:    10.5,
		Close:  11,
		Volume: 300,
	}
	return series
}

func newTestEvaluator() *Evaluator {
	return NewEvaluator(DefaultParams(), logger.Nop())
}

func TestEvaluate_ShortSeries(t *testing.T) {
	res, pct := newTestEvaluator().Evaluate(testStock, flatSeries(21, 10, 200), nil, nil)
	assert.Nil(t, res)
	assert.Nil(t, pct)
}

func TestEvaluate_ZeroVolumeFlatBarBreaksStreak(t *testing.T) {
	res, pct := newTestEvaluator().Evaluate(testStock, breakoutSeries(0), nil, nil)

	assert.Nil(t, res)
	require.NotNil(t, pct)
	assert.InDelta(t, 10.0, *pct, 1e-9)
}

func TestEvaluate_FlatBarWithVolumePasses(t *testing.T) {
	res, pct := newTestEvaluator().Evaluate(testStock, breakoutSeries(150), nil, nil)

	require.NotNil(t, res)
	require.NotNil(t, pct)
	assert.Equal(t, "2330", res.Ticker)
	assert.Equal(t, 72, res.ConsecutiveRed)
	assert.Equal(t, 11.0, res.CurrentPrice)
	assert.Equal(t, 10.0, res.PrevHigh)
	assert.Equal(t, 10.0, res.ChangePct)
	assert.Equal(t, int64(300), res.Volume)
	assert.True(t, res.CanDayTrade)
	assert.Contains(t, res.Tags, TagBreakout)
	assert.Contains(t, res.Tags, TagAboveAllMA)
	assert.Contains(t, res.Tags, TagRangeBreakout)
	assert.Equal(t, SignalTypeBuy, res.Signal.Type)
	assert.Equal(t, 90+72+5, res.Signal.Priority)
	assert.Contains(t, res.Signal.Text, "突破 20 日新高")
	assert.Nil(t, res.Alert)
}

func TestEvaluate_FlatVolumeBoundary(t *testing.T) {
	ev := newTestEvaluator()

	res, _ := ev.Evaluate(testStock, breakoutSeries(99), nil, nil)
	assert.Nil(t, res, "99 lots breaks the streak")

	res, _ = ev.Evaluate(testStock, breakoutSeries(100), nil, nil)
	assert.NotNil(t, res, "100 lots keeps the streak")
}

// With volumes in lots, a 500-lot flat bar is well above the 100-lot floor
// and keeps the streak alive.
func TestEvaluate_FlatBarOf500LotsKeepsStreak(t *testing.T) {
	series := flatSeries(72, 10, 200)
	series[70].Volume = 500
	series[71] = contracts.PriceBar{Date: series[71].Date, Open: 12, High: 13, Low: 12, Close: 13, Volume: 200000}

	res, pct := newTestEvaluator().Evaluate(testStock, series, nil, nil)

	require.NotNil(t, pct)
	assert.InDelta(t, 30.0, *pct, 1e-9)
	require.NotNil(t, res)
	assert.Equal(t, 72, res.ConsecutiveRed)
	assert.Equal(t, int64(200000), res.Volume)
	assert.GreaterOrEqual(t, res.Signal.Priority, 90+72)
}

func TestEvaluate_NoBreakoutWhenCloseEqualsPrevHigh(t *testing.T) {
	series := breakoutSeries(150)
	series[71].Close = 10
	series[71].Open = 10
	series[71].High = 10
	series[71].Low = 10

	res, pct := newTestEvaluator().Evaluate(testStock, series, nil, nil)
	assert.Nil(t, res)
	require.NotNil(t, pct)
	assert.Equal(t, 0.0, *pct)
}

func TestEvaluate_BelowMA60Fails(t *testing.T) {
	// 50 bars at 20 keep MA60 above the breakout close
	series := breakoutSeries(150)
	for i := 0; i < 50; i++ {
		series[i].Open, series[i].High, series[i].Low, series[i].Close = 20, 20, 20, 20
	}

	res, pct := newTestEvaluator().Evaluate(testStock, series, nil, nil)
	assert.Nil(t, res)
	assert.NotNil(t, pct)
}

func TestEvaluate_UndefinedMA60Fails(t *testing.T) {
	series := breakoutSeries(150)[12:] // 60 bars
	res, _ := newTestEvaluator().Evaluate(testStock, series, nil, nil)
	assert.NotNil(t, res)

	series = breakoutSeries(150)[13:] // 59 bars
	res, pct := newTestEvaluator().Evaluate(testStock, series, nil, nil)
	assert.Nil(t, res)
	assert.NotNil(t, pct)
}

func TestEvaluate_StopLoss(t *testing.T) {
	res, _ := newTestEvaluator().Evaluate(testStock, breakoutSeries(150), nil, nil)
	require.NotNil(t, res)
	assert.Equal(t, 10.5, res.StopLoss, "bar low above the 10% stop")

	series := breakoutSeries(150)
	series[71].Low = 9
	res, _ = newTestEvaluator().Evaluate(testStock, series, nil, nil)
	require.NotNil(t, res)
	assert.Equal(t, 9.9, res.StopLoss)
}

func TestEvaluate_OHLCWindow(t *testing.T) {
	res, _ := newTestEvaluator().Evaluate(testStock, breakoutSeries(150), nil, nil)
	require.NotNil(t, res)

	require.Len(t, res.OHLC, 30)
	for i := 1; i < len(res.OHLC); i++ {
		assert.Less(t, res.OHLC[i-1].Date, res.OHLC[i].Date)
	}
	last := res.OHLC[29]
	assert.Equal(t, "2024-03-12", last.Date)
	assert.Equal(t, 11.0, last.Close)
	assert.Equal(t, int64(300), last.Volume)
	require.NotNil(t, last.MA5)
	assert.Equal(t, 10.2, *last.MA5)
	assert.Equal(t, res.K, last.K)
	for _, p := range res.OHLC {
		assert.GreaterOrEqual(t, p.K, 0.0)
		assert.LessOrEqual(t, p.K, 100.0)
	}
}

func TestEvaluate_ActiveWarning(t *testing.T) {
	alerts := contracts.AlertState{
		"2330": {Type: contracts.AlertWarning, Active: true, Reason: "漲幅異常"},
	}

	res, _ := newTestEvaluator().Evaluate(testStock, breakoutSeries(150), alerts, nil)
	require.NotNil(t, res)

	require.NotNil(t, res.Alert)
	assert.Contains(t, res.Tags, TagAlert)
	assert.Equal(t, SignalTypeBuyWithRisk, res.Signal.Type)
	assert.Equal(t, 90+72+5+10, res.Signal.Priority)
	assert.True(t, res.CanDayTrade)
	assert.Contains(t, res.Signal.Text, "漲幅異常")
}

func TestEvaluate_DispositionBlocksDayTrade(t *testing.T) {
	alerts := contracts.AlertState{
		"2330": {Type: contracts.AlertDisposition, Active: true, Period: "2025-01-02 ~ 2025-01-15",
			Risk: contracts.RiskAssessment{Level: contracts.RiskHigh, Message: "處置中"}},
	}
	dayTrade := contracts.NewDayTradeSet([]string{"2330"})

	res, _ := newTestEvaluator().Evaluate(testStock, breakoutSeries(150), alerts, dayTrade)
	require.NotNil(t, res)

	assert.False(t, res.CanDayTrade)
	assert.Contains(t, res.Tags, TagDisposition)
	assert.Contains(t, res.Signal.Text, "處置中")
}

func TestEvaluate_InactiveLowRiskAlertIsDropped(t *testing.T) {
	alerts := contracts.AlertState{
		"2330": {Type: contracts.AlertWarning, Active: false, Risk: contracts.RiskAssessment{Level: contracts.RiskLow}},
	}

	res, _ := newTestEvaluator().Evaluate(testStock, breakoutSeries(150), alerts, nil)
	require.NotNil(t, res)
	assert.Nil(t, res.Alert)
	assert.Equal(t, 90+72+5, res.Signal.Priority)
}

func TestEvaluate_DayTradeList(t *testing.T) {
	ev := newTestEvaluator()

	res, _ := ev.Evaluate(testStock, breakoutSeries(150), nil, contracts.NewDayTradeSet([]string{"2317"}))
	require.NotNil(t, res)
	assert.False(t, res.CanDayTrade)

	res, _ = ev.Evaluate(testStock, breakoutSeries(150), nil, contracts.NewDayTradeSet(nil))
	require.NotNil(t, res)
	assert.True(t, res.CanDayTrade, "empty list skips the check")
}

func TestEvaluate_RecoversFromPanic(t *testing.T) {
	params := DefaultParams()
	params.OHLCWindow = -100
	ev := NewEvaluator(params, logger.Nop())

	var (
		res *contracts.ScanResult
		pct *float64
	)
	assert.NotPanics(t, func() {
		res, pct = ev.Evaluate(testStock, breakoutSeries(150), nil, nil)
	})
	assert.Nil(t, res)
	assert.Nil(t, pct)
}

func TestPriority(t *testing.T) {
	active := &contracts.AlertRecord{Active: true}
	inactive := &contracts.AlertRecord{Risk: contracts.RiskAssessment{Level: contracts.RiskMedium}}

	assert.Equal(t, 93, Priority(3, false, nil))
	assert.Equal(t, 98, Priority(3, true, nil))
	assert.Equal(t, 108, Priority(3, true, active))
	assert.Equal(t, 93, Priority(3, false, inactive))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2.35, Round(2.345, 2))
	assert.Equal(t, 66.7, Round(66.66666, 1))
}
