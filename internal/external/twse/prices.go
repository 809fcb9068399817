package twse

import (
	"context"
	"net/url"
	"time"

	"github.com/wonny/livermore/internal/contracts"
)

const sharesPerLot = 1000

// stockDay column positions when the fields header is missing
// 日期, 成交股數, 成交金額, 開盤價, 最高價, 最低價, 收盤價, 漲跌價差, 成交筆數
const (
	colDate   = 0
	colVolume = 1
	colOpen   = 3
	colHigh   = 4
	colLow    = 5
	colClose  = 6
)

// FetchMonth fetches one calendar month of daily bars (STOCK_DAY).
// An unknown ticker returns an empty series without error.
func (c *Client) FetchMonth(ctx context.Context, ticker string, month time.Time) (contracts.PriceSeries, error) {
	params := url.Values{}
	params.Set("response", "json")
	params.Set("date", time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC).Format("20060102"))
	params.Set("stockNo", ticker)

	var resp tableResponse
	if err := c.getTable(ctx, "/exchangeReport/STOCK_DAY", params, &resp); err != nil {
		return nil, err
	}
	if !resp.ok() {
		return contracts.PriceSeries{}, nil
	}

	series, skipped := parseStockDay(&resp)
	if skipped > 0 {
		c.logger.WithFields(map[string]interface{}{
			"ticker":  ticker,
			"month":   month.Format("2006-01"),
			"skipped": skipped,
		}).Debug("Skipped malformed STOCK_DAY rows")
	}
	return series, nil
}

// parseStockDay converts STOCK_DAY rows to bars, skipping malformed rows.
// Volume is reported in shares and converted to lots.
func parseStockDay(resp *tableResponse) (contracts.PriceSeries, int) {
	dateIdx := resp.fieldIndex("日期", colDate)
	volIdx := resp.fieldIndex("成交股數", colVolume)
	openIdx := resp.fieldIndex("開盤價", colOpen)
	highIdx := resp.fieldIndex("最高價", colHigh)
	lowIdx := resp.fieldIndex("最低價", colLow)
	closeIdx := resp.fieldIndex("收盤價", colClose)

	maxIdx := max(dateIdx, volIdx, openIdx, highIdx, lowIdx, closeIdx)

	series := make(contracts.PriceSeries, 0, len(resp.Data))
	skipped := 0
	for _, row := range resp.Data {
		if len(row) <= maxIdx {
			skipped++
			continue
		}

		date, err := ParseROCDate(col(row, dateIdx))
		if err != nil {
			skipped++
			continue
		}

		open, err1 := parseNumber(col(row, openIdx))
		high, err2 := parseNumber(col(row, highIdx))
		low, err3 := parseNumber(col(row, lowIdx))
		closePrice, err4 := parseNumber(col(row, closeIdx))
		shares, err5 := parseInt(col(row, volIdx))
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			skipped++
			continue
		}

		series = append(series, contracts.PriceBar{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: shares / sharesPerLot,
		})
	}

	return series, skipped
}
