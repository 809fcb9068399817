package taifex

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/livermore/pkg/config"
	"github.com/wonny/livermore/pkg/httputil"
	"github.com/wonny/livermore/pkg/logger"
)

// Client scrapes the TAIFEX market-cap rank table (股票期貨標的 市值排名)
// ⭐ SSOT: 市值排名只從這裡取得
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new TAIFEX client
func NewClient(httpClient *httputil.Client, cfg config.TAIFEXConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithModule("taifex"),
		baseURL:    cfg.BaseURL,
	}
}

// FetchMarketCapRank returns ticker → rank (1 = largest)
func (c *Client) FetchMarketCapRank(ctx context.Context) (map[string]int, error) {
	body, err := c.httpClient.GetBody(ctx, c.baseURL+"/cht/9/futuresQADetail")
	if err != nil {
		return nil, fmt.Errorf("taifex rank: %w", err)
	}

	ranks, err := parseRankHTML(body)
	if err != nil {
		return nil, err
	}

	c.logger.WithField("count", len(ranks)).Debug("Fetched market cap rank")
	return ranks, nil
}

// parseRankHTML reads table.table_c. Each row holds two entries side by side:
// 排行 | 證券代號 | 證券名稱 | 市值佔比 | 排行 | 證券代號 | 證券名稱 | 市值佔比
func parseRankHTML(body []byte) (map[string]int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("taifex rank: parse html: %w", err)
	}

	ranks := make(map[string]int)
	doc.Find("table.table_c tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() >= 4 {
			addRank(ranks, cells.Eq(0).Text(), cells.Eq(1).Text())
		}
		if cells.Length() >= 8 {
			addRank(ranks, cells.Eq(4).Text(), cells.Eq(5).Text())
		}
	})

	return ranks, nil
}

func addRank(ranks map[string]int, rankText, codeText string) {
	rank, err := strconv.Atoi(strings.TrimSpace(rankText))
	code := strings.TrimSpace(codeText)
	if err != nil || rank <= 0 || code == "" {
		return
	}
	ranks[code] = rank
}
