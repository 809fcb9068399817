package provider

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/internal/external/finmind"
	"github.com/wonny/livermore/internal/external/twse"
	"github.com/wonny/livermore/pkg/config"
	"github.com/wonny/livermore/pkg/httputil"
	"github.com/wonny/livermore/pkg/logger"
	"github.com/wonny/livermore/pkg/redis"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeMonths struct {
	mu     sync.Mutex
	months []string
	bars   map[string]contracts.PriceSeries
	fail   string
}

func (f *fakeMonths) FetchMonth(_ context.Context, _ string, month time.Time) (contracts.PriceSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := month.Format("2006-01")
	f.months = append(f.months, key)
	if key == f.fail {
		return nil, errors.New("boom")
	}
	return f.bars[key], nil
}

func TestTWSE_PaginatesByMonthAndTrims(t *testing.T) {
	fake := &fakeMonths{bars: map[string]contracts.PriceSeries{
		"2023-12": {{Date: date(2023, 12, 28), Close: 1}, {Date: date(2023, 12, 29), Close: 2}},
		"2024-01": {{Date: date(2024, 1, 2), Close: 3}, {Date: date(2024, 1, 31), Close: 4}},
		"2024-02": {{Date: date(2024, 2, 1), Close: 5}, {Date: date(2024, 2, 2), Close: 6}},
	}}
	p := NewTWSE(fake, logger.Nop())

	series := p.Fetch(context.Background(), "2330", date(2023, 12, 29), date(2024, 2, 1))

	assert.Equal(t, []string{"2023-12", "2024-01", "2024-02"}, fake.months)
	assert.Equal(t, []float64{2, 3, 4, 5}, series.Closes())
	assert.Equal(t, config.ProviderTWSE, p.Name())
	assert.False(t, p.HasCredential())
}

func TestTWSE_FailedMonthReturnsEmpty(t *testing.T) {
	fake := &fakeMonths{fail: "2024-01", bars: map[string]contracts.PriceSeries{
		"2023-12": {{Date: date(2023, 12, 28), Close: 1}},
	}}
	p := NewTWSE(fake, logger.Nop())

	series := p.Fetch(context.Background(), "2330", date(2023, 12, 1), date(2024, 2, 1))
	assert.Empty(t, series)
	assert.Equal(t, []string{"2023-12", "2024-01"}, fake.months)
}

func TestTWSE_InvertedRange(t *testing.T) {
	p := NewTWSE(&fakeMonths{}, logger.Nop())
	assert.Empty(t, p.Fetch(context.Background(), "2330", date(2024, 2, 1), date(2024, 1, 1)))
}

func TestMonthsBetween(t *testing.T) {
	months := monthsBetween(date(2023, 11, 30), date(2024, 1, 1))
	require.Len(t, months, 3)
	assert.Equal(t, date(2023, 11, 1), months[0])
	assert.Equal(t, date(2024, 1, 1), months[2])
}

type fakeRange struct {
	token bool
	bars  contracts.PriceSeries
	err   error
	waits int
}

func (f *fakeRange) FetchPrices(context.Context, string, time.Time, time.Time) (contracts.PriceSeries, error) {
	return f.bars, f.err
}

func (f *fakeRange) HasToken() bool { return f.token }

func (f *fakeRange) WaitQuota(context.Context) error {
	f.waits++
	return nil
}

func TestFinMind_Fetch(t *testing.T) {
	p := NewFinMind(&fakeRange{token: true, bars: contracts.PriceSeries{
		{Date: date(2024, 1, 3), Close: 2},
		{Date: date(2024, 1, 2), Close: 1},
	}}, logger.Nop())

	series := p.Fetch(context.Background(), "2330", date(2024, 1, 1), date(2024, 1, 31))
	assert.Equal(t, []float64{1, 2}, series.Closes())
	assert.True(t, p.HasCredential())
	assert.Equal(t, config.ProviderFinMind, p.Name())
}

func TestFinMind_ErrorReturnsEmpty(t *testing.T) {
	p := NewFinMind(&fakeRange{err: errors.New("quota")}, logger.Nop())
	series := p.Fetch(context.Background(), "2330", date(2024, 1, 1), date(2024, 1, 31))
	assert.NotNil(t, series)
	assert.Empty(t, series)
}

func TestCached_DisabledPassesThrough(t *testing.T) {
	inner := NewFinMind(&fakeRange{bars: contracts.PriceSeries{{Date: date(2024, 1, 2), Close: 1}}}, logger.Nop())
	p := NewCached(inner, redis.NewCache(redis.Disabled(), "test"), time.Minute, logger.Nop())

	series := p.Fetch(context.Background(), "2330", date(2024, 1, 1), date(2024, 1, 31))
	assert.Len(t, series, 1)
	assert.Equal(t, inner.Name(), p.Name())
	assert.False(t, p.HasCredential())
}

func TestCached_WaitQuotaDelegates(t *testing.T) {
	cache := redis.NewCache(redis.Disabled(), "test")

	fake := &fakeRange{}
	p := NewCached(NewFinMind(fake, logger.Nop()), cache, time.Minute, logger.Nop())
	require.NoError(t, p.WaitQuota(context.Background(), "2330", date(2024, 1, 1), date(2024, 1, 31)))
	assert.Equal(t, 1, fake.waits)

	// providers without a quota never block
	twseCached := NewCached(NewTWSE(&fakeMonths{}, logger.Nop()), cache, time.Minute, logger.Nop())
	assert.NoError(t, twseCached.WaitQuota(context.Background(), "2330", date(2024, 1, 1), date(2024, 1, 31)))
}

func TestCacheable(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2025, 1, 2, h, m, 0, 0, contracts.Taipei) }
	yesterday := contracts.PriceSeries{{Date: date(2025, 1, 1), Close: 1}}
	today := contracts.PriceSeries{{Date: date(2025, 1, 1), Close: 1}, {Date: date(2025, 1, 2), Close: 2}}

	tests := []struct {
		name   string
		series contracts.PriceSeries
		now    time.Time
		want   bool
	}{
		{"empty", contracts.PriceSeries{}, at(20, 0), false},
		{"settled history", yesterday, at(10, 0), true},
		{"intraday bar", today, at(10, 30), false},
		{"just before settle", today, at(13, 59), false},
		{"after settle", today, at(14, 0), true},
		// 01:00 Taipei on the 2nd, while UTC is still on the 1st
		{"utc clock", today, time.Date(2025, 1, 1, 17, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cacheable(tt.series, tt.now))
		})
	}
}

func TestNew_SelectsConfiguredProvider(t *testing.T) {
	log := logger.Nop()
	httpClient := httputil.New(log)
	clients := Clients{
		TWSE:    twse.NewClient(httpClient, config.TWSEConfig{}, log),
		FinMind: finmind.NewClient(httpClient, config.FinMindConfig{Token: "t"}, log),
	}

	p, err := New(&config.Config{Provider: config.ProviderTWSE}, clients, redis.Disabled(), log)
	require.NoError(t, err)
	assert.IsType(t, &TWSE{}, p)

	p, err = New(&config.Config{Provider: config.ProviderFinMind}, clients, redis.Disabled(), log)
	require.NoError(t, err)
	assert.True(t, p.HasCredential())

	_, err = New(&config.Config{Provider: "yahoo"}, clients, redis.Disabled(), log)
	assert.Error(t, err)

	_, err = New(&config.Config{Provider: config.ProviderFinMind}, Clients{}, redis.Disabled(), log)
	assert.Error(t, err)
}
