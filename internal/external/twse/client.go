package twse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/livermore/pkg/config"
	"github.com/wonny/livermore/pkg/httputil"
	"github.com/wonny/livermore/pkg/logger"
)

// Client handles communication with the Taiwan Stock Exchange.
// www.twse.com.tw serves month-granular prices, announcements and the
// day-trade list; openapi.twse.com.tw serves the company listing.
// ⭐ SSOT: TWSE 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	openAPIURL string
}

// NewClient creates a new TWSE client
func NewClient(httpClient *httputil.Client, cfg config.TWSEConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("twse"),
		baseURL:    cfg.BaseURL,
		openAPIURL: cfg.OpenAPIURL,
	}
}

// tableResponse is the envelope shared by the www.twse.com.tw report endpoints
type tableResponse struct {
	Stat   string     `json:"stat"`
	Title  string     `json:"title"`
	Fields []string   `json:"fields"`
	Data   [][]cell `json:"data"`
}

// cell accepts both string and numeric JSON values; the rwd endpoints mix them
type cell string

func (c *cell) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = cell(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("unsupported cell %s: %w", string(b), err)
	}
	*c = cell(n.String())
	return nil
}

// col returns row[i] as a trimmed string, or "" when out of range
func col(row []cell, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(string(row[i]))
}

// ok reports whether the exchange returned data. "很抱歉，沒有符合條件的資料!" and
// friends come back with HTTP 200 and a non-OK stat.
func (r *tableResponse) ok() bool {
	return r.Stat == "OK"
}

// fieldIndex finds a column by name, falling back to a known position
func (r *tableResponse) fieldIndex(name string, fallback int) int {
	for i, f := range r.Fields {
		if f == name {
			return i
		}
	}
	return fallback
}

func (c *Client) getTable(ctx context.Context, path string, params url.Values, dest interface{}) error {
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	body, err := c.httpClient.GetBody(ctx, fullURL)
	if err != nil {
		return fmt.Errorf("twse %s: %w", path, err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("twse %s: decode: %w", path, err)
	}
	return nil
}
