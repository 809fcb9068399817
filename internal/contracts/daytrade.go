package contracts

// DayTradeSet holds the tickers eligible for 現股當沖 in the current session.
// When Skip is set the check is bypassed and every ticker is eligible.
type DayTradeSet struct {
	tickers map[string]struct{}
	Skip    bool
}

// NewDayTradeSet builds a set from tickers; an empty set is skipped
func NewDayTradeSet(tickers []string) *DayTradeSet {
	set := &DayTradeSet{tickers: make(map[string]struct{}, len(tickers))}
	for _, t := range tickers {
		set.tickers[t] = struct{}{}
	}
	set.Skip = len(set.tickers) == 0
	return set
}

// Eligible reports membership, or true when the check is skipped
func (d *DayTradeSet) Eligible(ticker string) bool {
	if d == nil || d.Skip {
		return true
	}
	_, ok := d.tickers[ticker]
	return ok
}

// Len returns the number of eligible tickers
func (d *DayTradeSet) Len() int {
	if d == nil {
		return 0
	}
	return len(d.tickers)
}
