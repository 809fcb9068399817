package universe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/pkg/logger"
)

type fakeListing struct {
	companies []contracts.ListedCompany
	err       error
}

func (f *fakeListing) FetchListing(ctx context.Context) ([]contracts.ListedCompany, error) {
	return f.companies, f.err
}

type fakeRanks struct {
	ranks map[string]int
	err   error
}

func (f *fakeRanks) FetchMarketCapRank(ctx context.Context) (map[string]int, error) {
	return f.ranks, f.err
}

func twseListing() Listing {
	return Listing{Market: contracts.MarketTWSE, Feed: &fakeListing{companies: []contracts.ListedCompany{
		{Ticker: "2330", Name: "台積電", Market: contracts.MarketTWSE, IndustryCode: "24"},
		{Ticker: "1101", Name: "台泥", Market: contracts.MarketTWSE, IndustryCode: "01"},
		{Ticker: "0050", Name: "元大台灣50", Market: contracts.MarketTWSE},
		{Ticker: "2881A", Name: "富邦特", Market: contracts.MarketTWSE, IndustryCode: "17"},
	}}}
}

func tpexListing() Listing {
	return Listing{Market: contracts.MarketTPEx, Feed: &fakeListing{companies: []contracts.ListedCompany{
		{Ticker: "6488", Name: "環球晶", Market: contracts.MarketTPEx, IndustryCode: "24"},
		{Ticker: "5483", Name: "中美晶", Market: contracts.MarketTPEx, IndustryCode: "99"},
	}}}
}

func TestLoad_MergesListingsAndRanks(t *testing.T) {
	b := NewBuilder(&fakeRanks{ranks: map[string]int{"2330": 1, "6488": 40}}, logger.Nop(), twseListing(), tpexListing())

	u, err := b.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1101", "2330", "5483", "6488"}, u.Tickers())

	byTicker := map[string]contracts.Stock{}
	for _, s := range u.Stocks {
		byTicker[s.Ticker] = s
	}
	assert.Equal(t, "半導體業", byTicker["2330"].Sector)
	assert.Equal(t, 1, byTicker["2330"].Rank)
	assert.Equal(t, contracts.MarketTPEx, byTicker["6488"].Market)
	assert.Equal(t, UnknownSector, byTicker["5483"].Sector)
	assert.Zero(t, byTicker["1101"].Rank)
}

func TestLoad_OneListingFails(t *testing.T) {
	broken := Listing{Market: contracts.MarketTPEx, Feed: &fakeListing{err: errors.New("503")}}
	b := NewBuilder(&fakeRanks{err: errors.New("timeout")}, logger.Nop(), twseListing(), broken)

	u, err := b.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1101", "2330"}, u.Tickers())
}

func TestLoad_AllListingsFail(t *testing.T) {
	broken := Listing{Market: contracts.MarketTWSE, Feed: &fakeListing{err: errors.New("503")}}

	_, err := NewBuilder(nil, logger.Nop(), broken).Load(context.Background())
	assert.Error(t, err)
}

func TestWatchlist(t *testing.T) {
	b := NewBuilder(nil, logger.Nop(), twseListing(), tpexListing())

	u := b.Watchlist(context.Background(), []string{"6488", "2330", " 2330", "9999", ""})

	require.Equal(t, []string{"2330", "6488", "9999"}, u.Tickers())
	assert.Equal(t, "台積電", u.Stocks[0].Name)
	assert.Equal(t, contracts.MarketTPEx, u.Stocks[1].Market)
	assert.Equal(t, "9999", u.Stocks[2].Name)
	assert.Equal(t, UnknownSector, u.Stocks[2].Sector)
}

func TestTruncate(t *testing.T) {
	u := &contracts.Universe{Stocks: []contracts.Stock{
		{Ticker: "1101"},
		{Ticker: "1301", Rank: 12},
		{Ticker: "2317", Rank: 3},
		{Ticker: "2330", Rank: 1},
		{Ticker: "1102"},
	}}

	got := Truncate(u, 4)
	assert.Equal(t, []string{"2330", "2317", "1301", "1101"}, got.Tickers())
	assert.Len(t, u.Stocks, 5, "input untouched")

	assert.Same(t, u, Truncate(u, 5))
	assert.Same(t, u, Truncate(u, 0))
}

func TestSectorName(t *testing.T) {
	assert.Equal(t, "水泥工業", SectorName("01"))
	assert.Equal(t, "水泥工業", SectorName("1"))
	assert.Equal(t, "光電業", SectorName("26"))
	assert.Equal(t, UnknownSector, SectorName(""))
}

func TestFixed(t *testing.T) {
	src := NewBuilder(nil, logger.Nop(), twseListing()).Fixed([]string{"2330", "1101"})

	u, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1101", "2330"}, u.Tickers())
}
