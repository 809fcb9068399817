package tpex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/pkg/config"
	"github.com/wonny/livermore/pkg/httputil"
	"github.com/wonny/livermore/pkg/logger"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case warningPath:
			w.Write([]byte(`[
				{"SecuritiesCompanyCode":"6488","CompanyName":"環球晶","Date":"1140108","TradingInformation":"週轉率過高"},
				{"SecuritiesCompanyCode":"8299","CompanyName":"群聯","Date":"1131101","TradingInformation":"old"},
				{"SecuritiesCompanyCode":"5483","CompanyName":"中美晶","Date":"garbage","TradingInformation":"x"}
			]`))
		case disposalPath:
			w.Write([]byte(`[
				{"SecuritiesCompanyCode":"3105","CompanyName":"穩懋","Date":"1140102","DispositionPeriod":"1140103~1140116","DispositionMeasures":"第一次處置"},
				{"SecuritiesCompanyCode":"3529","CompanyName":"力旺","Date":"1130901","DispositionPeriod":"113/09/02～113/09/13","DispositionMeasures":"第二次處置"}
			]`))
		case dayTradePath:
			w.Write([]byte(`[{"SecuritiesCompanyCode":"6488"},{"SecuritiesCompanyCode":"合計"}]`))
		case listingPath:
			w.Write([]byte(`[
				{"SecuritiesCompanyCode":"6488","CompanyAbbreviation":"環球晶","CompanyName":"環球晶圓股份有限公司","SecuritiesIndustryCode":"24"},
				{"SecuritiesCompanyCode":"8069","CompanyAbbreviation":"","CompanyName":"元太","SecuritiesIndustryCode":"26"}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	return NewClient(httputil.New(logger.Nop()).DisableRetry(), config.TPExConfig{OpenAPIURL: server.URL}, logger.Nop())
}

func TestFetchWarnings_FiltersWindow(t *testing.T) {
	client := newTestClient(t)
	start := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	notices, err := client.FetchWarnings(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, "6488", notices[0].Ticker)
	assert.Equal(t, contracts.MarketTPEx, notices[0].Market)
	assert.Equal(t, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC), notices[0].Date)
}

func TestFetchDispositions(t *testing.T) {
	client := newTestClient(t)
	start := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	notices, err := client.FetchDispositions(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, "3105", notices[0].Ticker)
	assert.Equal(t, time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC), notices[0].End)
}

func TestFetchDayTradeList(t *testing.T) {
	tickers, err := newTestClient(t).FetchDayTradeList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"6488"}, tickers)
}

func TestFetchListing(t *testing.T) {
	companies, err := newTestClient(t).FetchListing(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "環球晶", companies[0].Name)
	assert.Equal(t, "元太", companies[1].Name)
	assert.Equal(t, "26", companies[1].IndustryCode)
}

func TestParsePeriod(t *testing.T) {
	from, to, err := parsePeriod("113/09/02～113/09/13")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 9, 13, 0, 0, 0, 0, time.UTC), to)

	_, _, err = parsePeriod("1140103")
	assert.Error(t, err)
}
