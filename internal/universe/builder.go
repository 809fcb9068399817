// Package universe builds the list of stocks a scan covers from the
// exchanges' company listings and the market-cap ranking.
package universe

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/pkg/logger"
	"github.com/wonny/livermore/pkg/redis"
)

// 普通股: four digits, no leading zero. ETFs (00xx), warrants and preferred
// shares are left out of the full-universe scan.
var commonStockPattern = regexp.MustCompile(`^[1-9]\d{3}$`)

// ListingFeed lists one market's companies
type ListingFeed interface {
	FetchListing(ctx context.Context) ([]contracts.ListedCompany, error)
}

// RankFeed returns market-cap rank by ticker (1 = largest)
type RankFeed interface {
	FetchMarketCapRank(ctx context.Context) (map[string]int, error)
}

// Listing is a market with its feed
type Listing struct {
	Market contracts.Market
	Feed   ListingFeed
}

// Builder constructs the scan universe
type Builder struct {
	listings []Listing
	ranks    RankFeed
	cache    *redis.Cache
	logger   *logger.Logger
	now      func() time.Time
}

// NewBuilder creates a new universe builder
func NewBuilder(ranks RankFeed, log *logger.Logger, listings ...Listing) *Builder {
	return &Builder{
		listings: listings,
		ranks:    ranks,
		logger:   log.WithModule("universe"),
		now:      time.Now,
	}
}

// WithCache caches listings and ranks for a day
func (b *Builder) WithCache(cache *redis.Cache) *Builder {
	b.cache = cache
	return b
}

// Load returns every common stock of every listing, ranked when the rank feed
// answers, sorted by ticker.
// ⭐ SSOT: 全市場掃描範圍
func (b *Builder) Load(ctx context.Context) (*contracts.Universe, error) {
	companies, err := b.fetchListings(ctx)
	if err != nil {
		return nil, err
	}
	ranks := b.fetchRanks(ctx)

	seen := make(map[string]bool, len(companies))
	stocks := make([]contracts.Stock, 0, len(companies))
	for _, c := range companies {
		if !commonStockPattern.MatchString(c.Ticker) || seen[c.Ticker] {
			continue
		}
		seen[c.Ticker] = true
		stocks = append(stocks, contracts.Stock{
			Ticker: c.Ticker,
			Name:   c.Name,
			Market: c.Market,
			Sector: SectorName(c.IndustryCode),
			Rank:   ranks[c.Ticker],
		})
	}
	sort.Slice(stocks, func(i, j int) bool { return stocks[i].Ticker < stocks[j].Ticker })

	b.logger.WithFields(map[string]interface{}{
		"stocks": len(stocks),
		"ranked": len(ranks),
	}).Info("Universe built")

	return &contracts.Universe{Stocks: stocks}, nil
}

// Watchlist returns a fixed-list universe. Names, markets and sectors are
// filled from the listings when they can be fetched; tickers missing from the
// listings are kept with their code as name.
func (b *Builder) Watchlist(ctx context.Context, tickers []string) *contracts.Universe {
	meta := make(map[string]contracts.ListedCompany)
	if companies, err := b.fetchListings(ctx); err == nil {
		for _, c := range companies {
			meta[c.Ticker] = c
		}
	}

	seen := make(map[string]bool, len(tickers))
	stocks := make([]contracts.Stock, 0, len(tickers))
	for _, t := range tickers {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true

		stock := contracts.Stock{Ticker: t, Name: t, Market: contracts.MarketTWSE, Sector: UnknownSector}
		if c, ok := meta[t]; ok {
			stock.Name = c.Name
			stock.Market = c.Market
			stock.Sector = SectorName(c.IndustryCode)
		}
		stocks = append(stocks, stock)
	}
	sort.Slice(stocks, func(i, j int) bool { return stocks[i].Ticker < stocks[j].Ticker })

	return &contracts.Universe{Stocks: stocks}
}

// Truncate keeps the limit highest-ranked stocks. Unranked stocks follow the
// ranked ones in ticker order. A non-positive limit or a universe within the
// limit is returned unchanged.
func Truncate(u *contracts.Universe, limit int) *contracts.Universe {
	if limit <= 0 || len(u.Stocks) <= limit {
		return u
	}

	stocks := make([]contracts.Stock, len(u.Stocks))
	copy(stocks, u.Stocks)
	sort.SliceStable(stocks, func(i, j int) bool {
		ri, rj := stocks[i].Rank, stocks[j].Rank
		switch {
		case ri > 0 && rj > 0 && ri != rj:
			return ri < rj
		case ri > 0 && rj == 0:
			return true
		case ri == 0 && rj > 0:
			return false
		}
		return stocks[i].Ticker < stocks[j].Ticker
	})

	return &contracts.Universe{Stocks: stocks[:limit]}
}

// fetchListings fetches every listing concurrently. A failing listing is
// logged and skipped; only a total failure is an error.
func (b *Builder) fetchListings(ctx context.Context) ([]contracts.ListedCompany, error) {
	var (
		mu       sync.Mutex
		all      []contracts.ListedCompany
		failures int
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range b.listings {
		l := l
		g.Go(func() error {
			companies, err := b.listing(gctx, l)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				b.logger.WithError(err).WithField("market", l.Market).Warn("Listing fetch failed")
				return nil
			}
			all = append(all, companies...)
			return nil
		})
	}
	_ = g.Wait()

	if len(b.listings) > 0 && failures == len(b.listings) {
		return nil, fmt.Errorf("all %d listings failed", failures)
	}
	return all, nil
}

func (b *Builder) listing(ctx context.Context, l Listing) ([]contracts.ListedCompany, error) {
	key := redis.ListingKey(string(l.Market))
	if b.cache != nil {
		var cached []contracts.ListedCompany
		if found, _ := b.cache.Get(ctx, key, &cached); found {
			return cached, nil
		}
	}

	companies, err := l.Feed.FetchListing(ctx)
	if err != nil {
		return nil, err
	}

	if b.cache != nil && len(companies) > 0 {
		if err := b.cache.Set(ctx, key, companies, redis.TTLDaily); err != nil {
			b.logger.WithError(err).Debug("Listing cache write failed")
		}
	}
	return companies, nil
}

// fetchRanks returns an empty map when ranking is unavailable
func (b *Builder) fetchRanks(ctx context.Context) map[string]int {
	if b.ranks == nil {
		return map[string]int{}
	}

	key := redis.RankKey(contracts.Day(b.now()).Format(contracts.DateLayout))
	if b.cache != nil {
		var cached map[string]int
		if found, _ := b.cache.Get(ctx, key, &cached); found {
			return cached
		}
	}

	ranks, err := b.ranks.FetchMarketCapRank(ctx)
	if err != nil {
		b.logger.WithError(err).Warn("Market cap rank unavailable, universe unranked")
		return map[string]int{}
	}

	if b.cache != nil && len(ranks) > 0 {
		if err := b.cache.Set(ctx, key, ranks, redis.TTLDaily); err != nil {
			b.logger.WithError(err).Debug("Rank cache write failed")
		}
	}
	return ranks
}

// fixedList is a UniverseSource over a watchlist
type fixedList struct {
	builder *Builder
	tickers []string
}

// Fixed returns a UniverseSource that always yields the watchlist tickers
func (b *Builder) Fixed(tickers []string) contracts.UniverseSource {
	return &fixedList{builder: b, tickers: tickers}
}

func (f *fixedList) Load(ctx context.Context) (*contracts.Universe, error) {
	return f.builder.Watchlist(ctx, f.tickers), nil
}
