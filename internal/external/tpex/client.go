package tpex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/internal/external/twse"
	"github.com/wonny/livermore/pkg/config"
	"github.com/wonny/livermore/pkg/httputil"
	"github.com/wonny/livermore/pkg/logger"
)

// Open API datasets
const (
	warningPath  = "/tpex_trading_warning_information"
	disposalPath = "/tpex_disposal_information"
	dayTradePath = "/tpex_intraday_trading_statistics"
	listingPath  = "/mopsfig_t187ap03_O"
)

// Client handles communication with the Taipei Exchange (上櫃) open API.
// Every dataset is a flat JSON array that always describes the latest session.
// ⭐ SSOT: TPEx 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new TPEx client
func NewClient(httpClient *httputil.Client, cfg config.TPExConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("tpex"),
		baseURL:    cfg.OpenAPIURL,
	}
}

func (c *Client) getJSON(ctx context.Context, path string, dest interface{}) error {
	if err := c.httpClient.GetJSON(ctx, c.baseURL+path, dest); err != nil {
		return fmt.Errorf("tpex %s: %w", path, err)
	}
	return nil
}

type warningRow struct {
	Code   string `json:"SecuritiesCompanyCode"`
	Name   string `json:"CompanyName"`
	Date   string `json:"Date"`
	Reason string `json:"TradingInformation"`
}

// FetchWarnings fetches 注意股 notices dated within [start, end]
func (c *Client) FetchWarnings(ctx context.Context, start, end time.Time) ([]contracts.WarningNotice, error) {
	var rows []warningRow
	if err := c.getJSON(ctx, warningPath, &rows); err != nil {
		return nil, err
	}

	notices := make([]contracts.WarningNotice, 0, len(rows))
	for _, r := range rows {
		date, err := parseDate(r.Date)
		ticker := strings.TrimSpace(r.Code)
		if err != nil || ticker == "" || date.Before(start) || date.After(end) {
			continue
		}
		notices = append(notices, contracts.WarningNotice{
			Ticker: ticker,
			Name:   strings.TrimSpace(r.Name),
			Market: contracts.MarketTPEx,
			Date:   date,
			Reason: strings.TrimSpace(r.Reason),
		})
	}
	return notices, nil
}

type disposalRow struct {
	Code    string `json:"SecuritiesCompanyCode"`
	Name    string `json:"CompanyName"`
	Date    string `json:"Date"`
	Period  string `json:"DispositionPeriod"`
	Measure string `json:"DispositionMeasures"`
}

// FetchDispositions fetches 處置股 periods announced within [start, end]
func (c *Client) FetchDispositions(ctx context.Context, start, end time.Time) ([]contracts.DispositionNotice, error) {
	var rows []disposalRow
	if err := c.getJSON(ctx, disposalPath, &rows); err != nil {
		return nil, err
	}

	notices := make([]contracts.DispositionNotice, 0, len(rows))
	for _, r := range rows {
		ticker := strings.TrimSpace(r.Code)
		from, to, err := parsePeriod(r.Period)
		if err != nil || ticker == "" || to.Before(start) || from.After(end) {
			continue
		}
		notices = append(notices, contracts.DispositionNotice{
			Ticker:  ticker,
			Name:    strings.TrimSpace(r.Name),
			Market:  contracts.MarketTPEx,
			Start:   from,
			End:     to,
			Measure: strings.TrimSpace(r.Measure),
		})
	}
	return notices, nil
}

type dayTradeRow struct {
	Code string `json:"SecuritiesCompanyCode"`
}

// FetchDayTradeList fetches the latest 當沖 eligible tickers
func (c *Client) FetchDayTradeList(ctx context.Context) ([]string, error) {
	var rows []dayTradeRow
	if err := c.getJSON(ctx, dayTradePath, &rows); err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(rows))
	for _, r := range rows {
		if ticker := strings.TrimSpace(r.Code); twse.IsTicker(ticker) {
			tickers = append(tickers, ticker)
		}
	}
	return tickers, nil
}

type listingRow struct {
	Code     string `json:"SecuritiesCompanyCode"`
	Name     string `json:"CompanyAbbreviation"`
	FullName string `json:"CompanyName"`
	Industry string `json:"SecuritiesIndustryCode"`
}

// FetchListing fetches every OTC listed company (上櫃公司基本資料)
func (c *Client) FetchListing(ctx context.Context) ([]contracts.ListedCompany, error) {
	var rows []listingRow
	if err := c.getJSON(ctx, listingPath, &rows); err != nil {
		return nil, err
	}

	companies := make([]contracts.ListedCompany, 0, len(rows))
	for _, r := range rows {
		ticker := strings.TrimSpace(r.Code)
		if !twse.IsTicker(ticker) {
			continue
		}
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = strings.TrimSpace(r.FullName)
		}
		companies = append(companies, contracts.ListedCompany{
			Ticker:       ticker,
			Name:         name,
			Market:       contracts.MarketTPEx,
			IndustryCode: strings.TrimSpace(r.Industry),
		})
	}
	return companies, nil
}

// parseDate accepts compact ROC ("1140108") and slashed ROC ("114/01/08")
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		return twse.ParseROCDate(s)
	}
	return twse.ParseCompactROCDate(s)
}

// parsePeriod accepts "1140103~1140116", "114/01/03~114/01/16" and full-width tildes
func parsePeriod(s string) (time.Time, time.Time, error) {
	s = strings.ReplaceAll(s, "～", "~")
	parts := strings.Split(s, "~")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q", s)
	}
	from, err := parseDate(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDate(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
