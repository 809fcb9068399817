package signals

import (
	"fmt"
	"math"
	"runtime/debug"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/pkg/logger"
)

// Evaluator applies the breakout rule to one ticker's series
// ⭐ SSOT: 突破條件判斷只在這裡
type Evaluator struct {
	params Params
	logger *logger.Logger
}

// NewEvaluator creates a new evaluator
func NewEvaluator(params Params, log *logger.Logger) *Evaluator {
	return &Evaluator{
		params: params,
		logger: log.WithModule("signals"),
	}
}

// Params returns the thresholds in use
func (e *Evaluator) Params() Params {
	return e.params
}

// Evaluate returns the scan result when the ticker passes breakout, MA
// alignment and the bullish streak together. changePct is returned whenever
// the series is long enough, pass or fail, for market breadth. A panic is
// contained to this ticker and reported as (nil, nil).
func (e *Evaluator) Evaluate(stock contracts.Stock, series contracts.PriceSeries, alerts contracts.AlertState, dayTrade *contracts.DayTradeSet) (result *contracts.ScanResult, changePct *float64) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithFields(map[string]interface{}{
				"ticker": stock.Ticker,
				"panic":  fmt.Sprint(r),
				"stack":  string(debug.Stack()),
			}).Error("Evaluation panicked")
			result, changePct = nil, nil
		}
	}()

	p := e.params
	n := len(series)
	if n < p.LookbackDays+2 {
		return nil, nil
	}

	opens, highs, lows, closes, volumes := series.Opens(), series.Highs(), series.Lows(), series.Closes(), series.Volumes()

	ma5 := SMA(closes, 5)
	ma10 := SMA(closes, 10)
	ma20 := SMA(closes, 20)
	ma60 := SMA(closes, 60)

	today := series[n-1]
	prevClose := closes[n-2]
	if prevClose <= 0 {
		return nil, nil
	}
	pct := (today.Close - prevClose) / prevClose * 100
	changePct = &pct

	prevHigh := MaxOf(highs[n-1-p.LookbackDays : n-1])
	streak := ConsecutiveBullish(opens, closes, volumes, float64(p.FlatBarMinVolume))

	price := today.Close
	isBreakout := price > prevHigh
	aboveAllMA := above(price, ma5[n-1]) && above(price, ma10[n-1]) && above(price, ma20[n-1]) && above(price, ma60[n-1])
	isStreak := streak >= p.MinBullishStreak

	if !(isBreakout && aboveAllMA && isStreak) {
		return nil, changePct
	}

	stopLoss := math.Max(today.Low, price*(1-p.StopLossPct))
	k, d := KD(highs, lows, closes)

	tags := []string{TagBreakout, TagAboveAllMA}
	if vol, ok := Volatility(closes, volatilityWindow); ok && vol < p.RangeVolatilityMax {
		tags = append(tags, TagRangeBreakout)
	}

	var alert *contracts.AlertRecord
	if rec := alerts.Get(stock.Ticker); rec.Surfaced() {
		alert = rec
		if rec.IsDisposed() {
			tags = append(tags, TagDisposition)
		} else if rec.Active {
			tags = append(tags, TagAlert)
		}
	}

	result = &contracts.ScanResult{
		Ticker:         stock.Ticker,
		Name:           stock.Name,
		Sector:         stock.Sector,
		Market:         stock.Market,
		CurrentPrice:   Round(price, 2),
		ChangePct:      Round(pct, 2),
		CanDayTrade:    dayTrade.Eligible(stock.Ticker) && !alerts.IsDisposed(stock.Ticker),
		PrevHigh:       Round(prevHigh, 2),
		ConsecutiveRed: streak,
		StopLoss:       Round(stopLoss, 2),
		K:              Round(k[n-1], 1),
		D:              Round(d[n-1], 1),
		Volume:         today.Volume,
		Tags:           tags,
		OHLC:           e.window(series, k, d, ma5, ma10, ma20),
		Alert:          alert,
	}
	result.Signal = BuildSignal(result, p.LookbackDays)

	return result, changePct
}

// BuildSignal derives the signal from a result's streak, tags and alert.
// Alert-only refreshes call it again after replacing the alert.
func BuildSignal(r *contracts.ScanResult, lookbackDays int) contracts.Signal {
	return contracts.Signal{
		Type:     signalType(r.Alert),
		Text:     signalText(r, lookbackDays),
		Priority: Priority(r.ConsecutiveRed, r.HasTag(TagRangeBreakout), r.Alert),
	}
}

// Priority is 90 + streak, +5 for a range breakout, +10 for an active alert
func Priority(streak int, rangeBreakout bool, alert *contracts.AlertRecord) int {
	priority := BasePriority + streak
	if rangeBreakout {
		priority += RangeBreakoutBonus
	}
	if alert != nil && alert.Active {
		priority += ActiveAlertBonus
	}
	return priority
}

func signalType(alert *contracts.AlertRecord) string {
	if alert != nil && alert.Active {
		return SignalTypeBuyWithRisk
	}
	return SignalTypeBuy
}

func signalText(r *contracts.ScanResult, lookbackDays int) string {
	var b strings.Builder

	if r.Alert != nil {
		switch {
		case r.Alert.IsDisposed():
			fmt.Fprintf(&b, "⛔ 處置中（%s），不可當沖。", r.Alert.Period)
		case r.Alert.Active:
			fmt.Fprintf(&b, "⚠️ 注意股：%s。", r.Alert.Reason)
		case r.Alert.Risk.Message != "":
			fmt.Fprintf(&b, "⚠️ %s。", r.Alert.Risk.Message)
		}
	}

	if r.HasTag(TagRangeBreakout) {
		b.WriteString("📦 盤整後")
	} else {
		b.WriteString("🔥 ")
	}
	fmt.Fprintf(&b, "突破 %d 日新高！連續 %d 根紅 K，站上所有均線，符合利弗摩爾關鍵點買進條件。停損設 %s",
		lookbackDays, r.ConsecutiveRed, decimal.NewFromFloat(r.StopLoss).StringFixed(2))

	return b.String()
}

// window emits the trailing chart bars with their indicators
func (e *Evaluator) window(series contracts.PriceSeries, k, d, ma5, ma10, ma20 []float64) []contracts.OHLCPoint {
	n := len(series)
	start := n - e.params.OHLCWindow
	if start < 0 {
		start = 0
	}

	volMA := SMA(series.Volumes(), volMAWidth)

	points := make([]contracts.OHLCPoint, 0, n-start)
	for i := start; i < n; i++ {
		bar := series[i]
		volMa5 := bar.Volume
		if !math.IsNaN(volMA[i]) {
			volMa5 = int64(volMA[i])
		}
		points = append(points, contracts.OHLCPoint{
			Date:   bar.Date.Format(contracts.DateLayout),
			Open:   Round(bar.Open, 2),
			High:   Round(bar.High, 2),
			Low:    Round(bar.Low, 2),
			Close:  Round(bar.Close, 2),
			Volume: bar.Volume,
			VolMa5: volMa5,
			K:      Round(k[i], 1),
			D:      Round(d[i], 1),
			MA5:    optional(ma5[i]),
			MA10:   optional(ma10[i]),
			MA20:   optional(ma20[i]),
		})
	}
	return points
}

// Round rounds half away from zero to places decimals
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	r := Round(v, 2)
	return &r
}

// above is false when the average is undefined
func above(price, avg float64) bool {
	return !math.IsNaN(avg) && price > avg
}
