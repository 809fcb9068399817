package finmind

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/pkg/config"
	"github.com/wonny/livermore/pkg/httputil"
	"github.com/wonny/livermore/pkg/logger"
)

// Published hourly quotas
const (
	AnonymousQuota = 300
	TokenQuota     = 600
)

const sharesPerLot = 1000

// Client handles communication with the FinMind v4 data API
// ⭐ SSOT: FinMind 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	token      string
	limiter    *rate.Limiter
	// tokens taken by WaitQuota and not yet spent by FetchPrices
	prepaid atomic.Int64
}

// NewClient creates a FinMind client paced to the hourly quota of its credential
func NewClient(httpClient *httputil.Client, cfg config.FinMindConfig, log *logger.Logger) *Client {
	quota := AnonymousQuota
	if cfg.Token != "" {
		quota = TokenQuota
	}

	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("finmind"),
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		limiter:    rate.NewLimiter(rate.Every(time.Hour/time.Duration(quota)), 10),
	}
}

// WithRate overrides the quota pacing
func (c *Client) WithRate(every time.Duration, burst int) *Client {
	c.limiter = rate.NewLimiter(rate.Every(every), burst)
	return c
}

// WaitQuota blocks until one request of quota is available and sets it
// aside for the next FetchPrices call
func (c *Client) WaitQuota(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("finmind quota wait: %w", err)
	}
	c.prepaid.Add(1)
	return nil
}

// spendQuota uses a token set aside by WaitQuota, or waits for a new one
func (c *Client) spendQuota(ctx context.Context) error {
	for {
		n := c.prepaid.Load()
		if n <= 0 {
			break
		}
		if c.prepaid.CompareAndSwap(n, n-1) {
			return nil
		}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("finmind quota wait: %w", err)
	}
	return nil
}

// HasToken reports whether a credential is configured
func (c *Client) HasToken() bool {
	return c.token != ""
}

// Quota returns the hourly request quota in effect
func (c *Client) Quota() int {
	if c.HasToken() {
		return TokenQuota
	}
	return AnonymousQuota
}

type priceResponse struct {
	Msg    string     `json:"msg"`
	Status int        `json:"status"`
	Data   []priceRow `json:"data"`
}

type priceRow struct {
	Date          string  `json:"date"`
	StockID       string  `json:"stock_id"`
	TradingVolume int64   `json:"Trading_Volume"`
	Open          float64 `json:"open"`
	Max           float64 `json:"max"`
	Min           float64 `json:"min"`
	Close         float64 `json:"close"`
}

// FetchPrices fetches TaiwanStockPrice for ticker in one request.
// Trading_Volume is reported in shares and converted to lots. The call
// spends a token reserved by WaitQuota when one exists.
func (c *Client) FetchPrices(ctx context.Context, ticker string, start, end time.Time) (contracts.PriceSeries, error) {
	if err := c.spendQuota(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("dataset", "TaiwanStockPrice")
	params.Set("data_id", ticker)
	params.Set("start_date", start.Format(contracts.DateLayout))
	params.Set("end_date", end.Format(contracts.DateLayout))
	if c.token != "" {
		params.Set("token", c.token)
	}

	var resp priceResponse
	if err := c.httpClient.GetJSON(ctx, fmt.Sprintf("%s?%s", c.baseURL, params.Encode()), &resp); err != nil {
		return nil, fmt.Errorf("finmind TaiwanStockPrice %s: %w", ticker, err)
	}
	if resp.Msg != "success" {
		return nil, fmt.Errorf("finmind TaiwanStockPrice %s: %s", ticker, resp.Msg)
	}

	series := make(contracts.PriceSeries, 0, len(resp.Data))
	for _, row := range resp.Data {
		date, err := contracts.ParseDay(row.Date)
		if err != nil || row.Close <= 0 {
			continue
		}
		series = append(series, contracts.PriceBar{
			Date:   date,
			Open:   row.Open,
			High:   row.Max,
			Low:    row.Min,
			Close:  row.Close,
			Volume: row.TradingVolume / sharesPerLot,
		})
	}
	return series, nil
}
