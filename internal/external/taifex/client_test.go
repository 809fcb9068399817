package taifex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/livermore/pkg/config"
	"github.com/wonny/livermore/pkg/httputil"
	"github.com/wonny/livermore/pkg/logger"
)

const rankHTML = `<html><body>
<table class="table_c">
  <thead><tr><th>排行</th><th>證券代號</th><th>證券名稱</th><th>市值佔比</th><th>排行</th><th>證券代號</th><th>證券名稱</th><th>市值佔比</th></tr></thead>
  <tr><td> 1 </td><td>2330</td><td>台積電</td><td>30.1%</td><td>151</td><td>6488</td><td>環球晶</td><td>0.1%</td></tr>
  <tr><td>2</td><td>2317</td><td>鴻海</td><td>3.2%</td><td></td><td></td><td></td><td></td></tr>
  <tr><td>--</td><td>9999</td><td>x</td><td>x</td></tr>
</table>
<table class="other"><tr><td>3</td><td>1101</td><td>台泥</td><td>1%</td></tr></table>
</body></html>`

func TestParseRankHTML(t *testing.T) {
	ranks, err := parseRankHTML([]byte(rankHTML))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"2330": 1, "6488": 151, "2317": 2}, ranks)
}

func TestFetchMarketCapRank(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cht/9/futuresQADetail", r.URL.Path)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(rankHTML))
	}))
	defer server.Close()

	client := NewClient(httputil.New(logger.Nop()).DisableRetry(), config.TAIFEXConfig{BaseURL: server.URL}, logger.Nop())
	ranks, err := client.FetchMarketCapRank(context.Background())
	require.NoError(t, err)
	assert.Len(t, ranks, 3)
}
