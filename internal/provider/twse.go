package provider

import (
	"context"
	"time"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/pkg/config"
	"github.com/wonny/livermore/pkg/logger"
)

// MonthFetcher fetches one calendar month of bars
type MonthFetcher interface {
	FetchMonth(ctx context.Context, ticker string, month time.Time) (contracts.PriceSeries, error)
}

// TWSE is the exchange-direct provider. The upstream is month-granular, so a
// range issues one request per calendar month and is trimmed afterwards.
type TWSE struct {
	client MonthFetcher
	logger *logger.Logger
}

// NewTWSE creates the exchange-direct provider
func NewTWSE(client MonthFetcher, log *logger.Logger) *TWSE {
	return &TWSE{client: client, logger: log.WithModule("provider.twse")}
}

// Name returns the provider name
func (p *TWSE) Name() string { return config.ProviderTWSE }

// HasCredential is always false; the exchange has no credential tier
func (p *TWSE) HasCredential() bool { return false }

// Fetch returns the bars in [start, end]. Any failed month yields an empty
// series because a gap would corrupt the moving averages.
func (p *TWSE) Fetch(ctx context.Context, ticker string, start, end time.Time) contracts.PriceSeries {
	start, end = contracts.Day(start), contracts.Day(end)
	if end.Before(start) {
		return contracts.PriceSeries{}
	}

	var all contracts.PriceSeries
	for _, month := range monthsBetween(start, end) {
		bars, err := p.client.FetchMonth(ctx, ticker, month)
		if err != nil {
			p.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"month":  month.Format("2006-01"),
			}).WithError(err).Warn("Monthly fetch failed")
			return contracts.PriceSeries{}
		}
		all = append(all, bars...)
	}

	return all.Between(start, end)
}

// monthsBetween lists the first day of every month touching [start, end]
func monthsBetween(start, end time.Time) []time.Time {
	var months []time.Time
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		months = append(months, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}
