package twse

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/livermore/internal/contracts"
)

// listedCompany is one record of the openapi t187ap03_L dataset
type listedCompany struct {
	Code     string `json:"公司代號"`
	Name     string `json:"公司簡稱"`
	Industry string `json:"產業別"`
}

// FetchListing fetches every TWSE listed company (上市公司基本資料)
func (c *Client) FetchListing(ctx context.Context) ([]contracts.ListedCompany, error) {
	var rows []listedCompany
	if err := c.httpClient.GetJSON(ctx, fmt.Sprintf("%s/opendata/t187ap03_L", c.openAPIURL), &rows); err != nil {
		return nil, fmt.Errorf("twse listing: %w", err)
	}

	companies := make([]contracts.ListedCompany, 0, len(rows))
	for _, r := range rows {
		ticker := strings.TrimSpace(r.Code)
		if !IsTicker(ticker) {
			continue
		}
		companies = append(companies, contracts.ListedCompany{
			Ticker:       ticker,
			Name:         strings.TrimSpace(r.Name),
			Market:       contracts.MarketTWSE,
			IndustryCode: strings.TrimSpace(r.Industry),
		})
	}
	return companies, nil
}
