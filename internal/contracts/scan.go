package contracts

// Signal is the recommendation attached to a passing ticker
type Signal struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Priority int    `json:"priority"`
}

// OHLCPoint is one bar of the chart window with its indicators
type OHLCPoint struct {
	Date   string   `json:"date"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume int64    `json:"volume"`
	VolMa5 int64    `json:"volMa5"`
	K      float64  `json:"k"`
	D      float64  `json:"d"`
	MA5    *float64 `json:"ma5"`
	MA10   *float64 `json:"ma10"`
	MA20   *float64 `json:"ma20"`
}

// ScanResult is the evaluator output for a ticker that passed every test.
// Field names are read by downstream consumers and must stay stable.
// ⭐ SSOT: snapshot stocks[] 항목
type ScanResult struct {
	Ticker         string       `json:"ticker"`
	Name           string       `json:"name"`
	Sector         string       `json:"sector"`
	Market         Market       `json:"market"`
	CurrentPrice   float64      `json:"currentPrice"`
	ChangePct      float64      `json:"changePct"`
	CanDayTrade    bool         `json:"canDayTrade"`
	PrevHigh       float64      `json:"prevHigh"`
	ConsecutiveRed int          `json:"consecutiveRed"`
	StopLoss       float64      `json:"stopLoss"`
	K              float64      `json:"k"`
	D              float64      `json:"d"`
	Volume         int64        `json:"volume"`
	Tags           []string     `json:"tags"`
	Signal         Signal       `json:"signal"`
	OHLC           []OHLCPoint  `json:"ohlc"`
	Alert          *AlertRecord `json:"alert"`
}

// HasTag reports whether the result carries tag
func (r *ScanResult) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
