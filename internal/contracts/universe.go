package contracts

// Market identifies an exchange segment
type Market string

const (
	MarketTWSE Market = "TWSE" // 上市
	MarketTPEx Market = "TPEx" // 上櫃
)

// Stock is one member of the scan universe
type Stock struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Market Market `json:"market"`
	Sector string `json:"sector"`
	Rank   int    `json:"rank,omitempty"` // market-cap rank, 0 = unranked
}

// Universe is the ordered list of stocks a run scans
// ⭐ SSOT: 掃描範圍
type Universe struct {
	Stocks []Stock `json:"stocks"`
}

// Contains checks if a ticker is in the universe
func (u *Universe) Contains(ticker string) bool {
	for _, s := range u.Stocks {
		if s.Ticker == ticker {
			return true
		}
	}
	return false
}

// Count returns the number of stocks
func (u *Universe) Count() int {
	return len(u.Stocks)
}

// Tickers returns the tickers in universe order
func (u *Universe) Tickers() []string {
	out := make([]string, len(u.Stocks))
	for i, s := range u.Stocks {
		out[i] = s.Ticker
	}
	return out
}

// ListedCompany is one row of an exchange's company listing
type ListedCompany struct {
	Ticker       string
	Name         string
	Market       Market
	IndustryCode string // 產業別 code, e.g. "24"
}
