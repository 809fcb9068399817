package alerts

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/livermore/internal/contracts"
)

// Risk windows. "6 trading sessions" is approximated by 10 calendar days,
// which undercounts weeks that contain holidays.
const (
	recentWindowDays  = 10
	monthlyWindowDays = 30

	// 當日 tolerance for feed timestamps vs. the local clock
	toleranceDays = 1
)

// BuildState merges feed rows into per-ticker alert records as of now.
// It is pure: the same rows and now always produce the same state.
func BuildState(warnings []contracts.WarningNotice, dispositions []contracts.DispositionNotice, now time.Time) contracts.AlertState {
	today := contracts.Day(now)
	state := make(contracts.AlertState)
	historySets := make(map[string]map[string]bool)

	sorted := make([]contracts.WarningNotice, len(warnings))
	copy(sorted, warnings)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	for _, w := range sorted {
		rec := state[w.Ticker]
		if rec == nil {
			rec = &contracts.AlertRecord{Type: contracts.AlertWarning}
			state[w.Ticker] = rec
			historySets[w.Ticker] = make(map[string]bool)
		}

		day := w.Date.Format(contracts.DateLayout)
		if !historySets[w.Ticker][day] {
			historySets[w.Ticker][day] = true
			rec.History = append(rec.History, day)
		}

		if abs(daysBetween(w.Date, today)) <= toleranceDays {
			rec.Active = true
			rec.Reason = w.Reason
			rec.Date = day
		}
	}

	for _, d := range dispositions {
		if today.Before(d.Start.AddDate(0, 0, -toleranceDays)) || today.After(d.End.AddDate(0, 0, toleranceDays)) {
			continue
		}

		rec := state[d.Ticker]
		if rec == nil {
			rec = &contracts.AlertRecord{History: []string{}}
			state[d.Ticker] = rec
		}
		rec.Type = contracts.AlertDisposition
		rec.Active = true
		rec.Reason = d.Measure
		rec.Period = fmt.Sprintf("%s ~ %s", d.Start.Format(contracts.DateLayout), d.End.Format(contracts.DateLayout))
		rec.Date = d.Start.Format(contracts.DateLayout)
	}

	for _, rec := range state {
		if rec.Type == contracts.AlertDisposition {
			rec.Risk = contracts.RiskAssessment{Level: contracts.RiskHigh, Message: "處置中"}
		} else {
			rec.Risk = AssessRisk(rec.History, today)
		}
		decorate(rec)
	}

	return state
}

// AssessRisk classifies how close a warned ticker is to disposition.
// history holds YYYY-MM-DD trigger dates.
func AssessRisk(history []string, now time.Time) contracts.RiskAssessment {
	today := contracts.Day(now)
	recentCutoff := today.AddDate(0, 0, -recentWindowDays)
	monthlyCutoff := today.AddDate(0, 0, -monthlyWindowDays)

	risk := contracts.RiskAssessment{Level: contracts.RiskLow}
	for _, h := range history {
		d, err := contracts.ParseDay(h)
		if err != nil || d.After(today) {
			continue
		}
		if !d.Before(recentCutoff) {
			risk.Count6++
		}
		if !d.Before(monthlyCutoff) {
			risk.Count30++
		}
	}

	switch {
	case risk.Count6 >= 3:
		risk.Level = contracts.RiskHigh
		risk.Message = fmt.Sprintf("近6日已列注意股 %d 次，接近「6日內4次」處置門檻", risk.Count6)
	case risk.Count6 >= 2:
		risk.Level = contracts.RiskMedium
		risk.Message = fmt.Sprintf("近6日已列注意股 %d 次，留意是否再被列入", risk.Count6)
	}

	if risk.Count30 >= 10 {
		risk.Level = contracts.RiskHigh
		risk.Message = fmt.Sprintf("近30日已列注意股 %d 次，接近「30日內12次」處置門檻", risk.Count30)
	}

	return risk
}

// decorate fills the card display fields
func decorate(rec *contracts.AlertRecord) {
	switch {
	case rec.Type == contracts.AlertDisposition:
		rec.Badge = "處置"
		rec.Color = "red"
		rec.Info = fmt.Sprintf("處置股 %s", rec.Period)
		rec.Detail = rec.Reason
	case rec.Active:
		rec.Badge = "注意"
		rec.Color = riskColor(rec.Risk.Level)
		rec.Info = fmt.Sprintf("注意股：%s", rec.Reason)
		rec.Detail = riskDetail(rec.Risk)
	default:
		rec.Badge = "注意"
		rec.Color = riskColor(rec.Risk.Level)
		rec.Info = "近期多次列入注意股"
		rec.Detail = riskDetail(rec.Risk)
	}
}

func riskColor(level contracts.RiskLevel) string {
	if level == contracts.RiskHigh {
		return "red"
	}
	return "yellow"
}

func riskDetail(risk contracts.RiskAssessment) string {
	if risk.Message != "" {
		return risk.Message
	}
	return fmt.Sprintf("近6日 %d 次，近30日 %d 次", risk.Count6, risk.Count30)
}

func daysBetween(from, to time.Time) int {
	return int(contracts.Day(to).Sub(contracts.Day(from)).Hours() / 24)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
