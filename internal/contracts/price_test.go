package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDay_UsesTaipeiCalendar(t *testing.T) {
	// 2024-01-02 17:00 UTC is already 2024-01-03 in Taipei
	utc := time.Date(2024, 1, 2, 17, 0, 0, 0, time.UTC)
	assert.Equal(t, day("2024-01-03"), Day(utc))

	local := time.Date(2024, 1, 2, 23, 59, 0, 0, Taipei)
	assert.Equal(t, day("2024-01-02"), Day(local))
}

func TestPriceSeries_Between(t *testing.T) {
	series := PriceSeries{
		{Date: day("2024-02-01"), Close: 3},
		{Date: day("2024-01-02"), Close: 1},
		{Date: day("2024-01-15"), Close: 2},
		{Date: day("2024-01-15"), Close: 99},
		{Date: day("2023-12-29"), Close: 0},
	}

	got := series.Between(day("2024-01-01"), day("2024-01-31"))
	require.Len(t, got, 2)
	assert.Equal(t, []float64{1, 2}, got.Closes())
}

func TestPriceSeries_Columns(t *testing.T) {
	series := PriceSeries{
		{Open: 1, High: 3, Low: 0.5, Close: 2, Volume: 10},
		{Open: 2, High: 4, Low: 1.5, Close: 3, Volume: 20},
	}

	assert.Equal(t, 2, series.Len())
	assert.Equal(t, []float64{3, 4}, series.Highs())
	assert.Equal(t, []float64{0.5, 1.5}, series.Lows())
	assert.Equal(t, []float64{10, 20}, series.Volumes())
	assert.Equal(t, 3.0, series.Last().Close)
}
