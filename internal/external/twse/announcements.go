package twse

import (
	"context"
	"net/url"
	"time"

	"github.com/wonny/livermore/internal/contracts"
)

// FetchWarnings fetches 注意股 notices announced between start and end
func (c *Client) FetchWarnings(ctx context.Context, start, end time.Time) ([]contracts.WarningNotice, error) {
	var resp tableResponse
	if err := c.getTable(ctx, "/rwd/zh/announcement/notice", announcementParams(start, end), &resp); err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, nil
	}

	return parseWarnings(&resp), nil
}

// FetchDispositions fetches 處置股 announcements published between start and end
func (c *Client) FetchDispositions(ctx context.Context, start, end time.Time) ([]contracts.DispositionNotice, error) {
	var resp tableResponse
	if err := c.getTable(ctx, "/rwd/zh/announcement/punish", announcementParams(start, end), &resp); err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, nil
	}

	return parseDispositions(&resp), nil
}

func announcementParams(start, end time.Time) url.Values {
	params := url.Values{}
	params.Set("response", "json")
	params.Set("startDate", start.Format("20060102"))
	params.Set("endDate", end.Format("20060102"))
	return params
}

// parseWarnings reads 編號, 證券代號, 證券名稱, 累計次數, 注意交易資訊, 日期, ...
func parseWarnings(resp *tableResponse) []contracts.WarningNotice {
	codeIdx := resp.fieldIndex("證券代號", 1)
	nameIdx := resp.fieldIndex("證券名稱", 2)
	reasonIdx := resp.fieldIndex("注意交易資訊", 4)
	dateIdx := resp.fieldIndex("日期", 5)

	notices := make([]contracts.WarningNotice, 0, len(resp.Data))
	for _, row := range resp.Data {
		ticker := col(row, codeIdx)
		date, err := ParseROCDate(col(row, dateIdx))
		if ticker == "" || err != nil {
			continue
		}
		notices = append(notices, contracts.WarningNotice{
			Ticker: ticker,
			Name:   col(row, nameIdx),
			Market: contracts.MarketTWSE,
			Date:   date,
			Reason: col(row, reasonIdx),
		})
	}
	return notices
}

// parseDispositions reads 編號, 公布日期, 證券代號, 證券名稱, 累計, 處置條件, 處置起迄時間, 處置措施, ...
func parseDispositions(resp *tableResponse) []contracts.DispositionNotice {
	codeIdx := resp.fieldIndex("證券代號", 2)
	nameIdx := resp.fieldIndex("證券名稱", 3)
	periodIdx := resp.fieldIndex("處置起迄時間", 6)
	measureIdx := resp.fieldIndex("處置措施", 7)

	notices := make([]contracts.DispositionNotice, 0, len(resp.Data))
	for _, row := range resp.Data {
		ticker := col(row, codeIdx)
		start, end, err := ParseROCPeriod(col(row, periodIdx))
		if ticker == "" || err != nil {
			continue
		}
		notices = append(notices, contracts.DispositionNotice{
			Ticker:  ticker,
			Name:    col(row, nameIdx),
			Market:  contracts.MarketTWSE,
			Start:   start,
			End:     end,
			Measure: col(row, measureIdx),
		})
	}
	return notices
}
