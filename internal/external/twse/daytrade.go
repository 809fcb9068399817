package twse

import (
	"context"
	"net/url"
	"time"
)

// dayTradeResponse is the TWTB4U envelope; the ticker list is one of several tables
type dayTradeResponse struct {
	tableResponse
	Tables []tableResponse `json:"tables"`
}

// FetchDayTradeList fetches the tickers eligible for 現股當沖 on date (TWTB4U).
// Non-trading dates come back empty.
func (c *Client) FetchDayTradeList(ctx context.Context, date time.Time) ([]string, error) {
	params := url.Values{}
	params.Set("response", "json")
	params.Set("date", date.Format("20060102"))

	var resp dayTradeResponse
	if err := c.getTable(ctx, "/rwd/zh/dayTrading/TWTB4U", params, &resp); err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, nil
	}

	return parseDayTrade(&resp), nil
}

func parseDayTrade(resp *dayTradeResponse) []string {
	tables := resp.Tables
	if len(tables) == 0 {
		tables = []tableResponse{resp.tableResponse}
	}

	var tickers []string
	for i := range tables {
		table := &tables[i]
		codeIdx := table.fieldIndex("證券代號", -1)
		if codeIdx < 0 {
			continue
		}
		for _, row := range table.Data {
			if ticker := col(row, codeIdx); IsTicker(ticker) {
				tickers = append(tickers, ticker)
			}
		}
	}
	return tickers
}

// IsTicker reports whether s looks like a ticker (4-6 ASCII letters or digits)
func IsTicker(s string) bool {
	if len(s) < 4 || len(s) > 6 {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9') && !(r >= 'A' && r <= 'Z') && !(r >= 'a' && r <= 'z') {
			return false
		}
	}
	return true
}
