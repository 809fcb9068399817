package provider

import (
	"context"
	"time"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/pkg/config"
	"github.com/wonny/livermore/pkg/logger"
)

// RangeFetcher fetches a date range in one request
type RangeFetcher interface {
	FetchPrices(ctx context.Context, ticker string, start, end time.Time) (contracts.PriceSeries, error)
	HasToken() bool
	WaitQuota(ctx context.Context) error
}

// FinMind is the aggregator-API provider
type FinMind struct {
	client RangeFetcher
	logger *logger.Logger
}

// NewFinMind creates the aggregator-API provider
func NewFinMind(client RangeFetcher, log *logger.Logger) *FinMind {
	return &FinMind{client: client, logger: log.WithModule("provider.finmind")}
}

// Name returns the provider name
func (p *FinMind) Name() string { return config.ProviderFinMind }

// HasCredential reports whether an API token raises the quota
func (p *FinMind) HasCredential() bool { return p.client.HasToken() }

// WaitQuota reserves one request of the upstream quota
func (p *FinMind) WaitQuota(ctx context.Context, ticker string, start, end time.Time) error {
	return p.client.WaitQuota(ctx)
}

// Fetch returns the bars in [start, end], or an empty series on failure
func (p *FinMind) Fetch(ctx context.Context, ticker string, start, end time.Time) contracts.PriceSeries {
	start, end = contracts.Day(start), contracts.Day(end)

	bars, err := p.client.FetchPrices(ctx, ticker, start, end)
	if err != nil {
		p.logger.WithField("ticker", ticker).WithError(err).Warn("Price fetch failed")
		return contracts.PriceSeries{}
	}
	return bars.Between(start, end)
}
