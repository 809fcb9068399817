package provider

import (
	"context"
	"time"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/pkg/logger"
	"github.com/wonny/livermore/pkg/redis"
)

// sessionSettled is when the exchange publishes the final daily bar (Taipei)
const sessionSettled = 14 * time.Hour

// Cached memoizes settled series in Redis so that same-day re-runs and
// scheduler retries do not spend upstream quota twice.
type Cached struct {
	next   contracts.PriceProvider
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time
}

// NewCached wraps next with a series cache
func NewCached(next contracts.PriceProvider, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl, logger: log.WithModule("provider.cache"), now: time.Now}
}

// Name returns the wrapped provider's name
func (c *Cached) Name() string { return c.next.Name() }

// HasCredential delegates to the wrapped provider
func (c *Cached) HasCredential() bool { return c.next.HasCredential() }

func (c *Cached) key(ticker string, start, end time.Time) string {
	return redis.PriceSeriesKey(c.next.Name(), ticker,
		contracts.Day(start).Format(contracts.DateLayout), contracts.Day(end).Format(contracts.DateLayout))
}

func (c *Cached) lookup(ctx context.Context, key, ticker string) (contracts.PriceSeries, bool) {
	var cached contracts.PriceSeries
	found, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.WithField("ticker", ticker).WithError(err).Debug("Cache read failed")
		return nil, false
	}
	return cached, found
}

// WaitQuota delegates to the wrapped provider unless the series is cached
func (c *Cached) WaitQuota(ctx context.Context, ticker string, start, end time.Time) error {
	qw, ok := c.next.(contracts.QuotaWaiter)
	if !ok {
		return nil
	}
	if _, found := c.lookup(ctx, c.key(ticker, start, end), ticker); found {
		return nil
	}
	return qw.WaitQuota(ctx, ticker, start, end)
}

// Fetch serves from cache, falling through to the wrapped provider
func (c *Cached) Fetch(ctx context.Context, ticker string, start, end time.Time) contracts.PriceSeries {
	key := c.key(ticker, start, end)
	if cached, found := c.lookup(ctx, key, ticker); found {
		return cached
	}

	series := c.next.Fetch(ctx, ticker, start, end)
	if cacheable(series, c.now()) {
		if err := c.cache.Set(ctx, key, series, c.ttl); err != nil {
			c.logger.WithField("ticker", ticker).WithError(err).Debug("Cache write failed")
		}
	}
	return series
}

// cacheable rejects empty series and series whose last bar is today's
// before the session has settled, since that bar may still change
func cacheable(series contracts.PriceSeries, now time.Time) bool {
	if len(series) == 0 {
		return false
	}
	today := contracts.Day(now)
	if series.Last().Date.Before(today) {
		return true
	}
	local := now.In(contracts.Taipei)
	y, m, d := local.Date()
	settled := time.Date(y, m, d, 0, 0, 0, 0, contracts.Taipei).Add(sessionSettled)
	return !local.Before(settled)
}
