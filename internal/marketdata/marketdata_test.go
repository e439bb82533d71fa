package marketdata

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexquant/topoarb/pkg/config"
	"github.com/apexquant/topoarb/pkg/httputil"
	"github.com/apexquant/topoarb/pkg/logger"
)

func testHTTPClient() *httputil.Client {
	cfg := &config.Config{}
	cfg.Market.Timeout = 5 * time.Second
	cfg.Market.RequestsPerSec = 1000
	return httputil.New(cfg, logger.NewNop()).DisableRetry()
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildSeries_AlignsDateUnion(t *testing.T) {
	bars := map[string][]Bar{
		"BBB": {
			{Symbol: "BBB", Date: day(2024, 1, 2), Close: 20},
			{Symbol: "BBB", Date: day(2024, 1, 3), Close: 21},
		},
		"AAA": {
			{Symbol: "AAA", Date: day(2024, 1, 1), Close: 10},
			{Symbol: "AAA", Date: day(2024, 1, 3), Close: 11},
		},
	}

	series := BuildSeries(bars)

	assert.Equal(t, []string{"AAA", "BBB"}, series.Symbols)
	require.Equal(t, []time.Time{day(2024, 1, 1), day(2024, 1, 2), day(2024, 1, 3)}, series.Dates)
	require.Len(t, series.Prices, 2)

	// AAA misses Jan 2, BBB misses Jan 1. Gaps stay NaN.
	assert.Equal(t, 10.0, series.Prices[0][0])
	assert.True(t, math.IsNaN(series.Prices[0][1]))
	assert.Equal(t, 11.0, series.Prices[0][2])

	assert.True(t, math.IsNaN(series.Prices[1][0]))
	assert.Equal(t, 20.0, series.Prices[1][1])
	assert.Equal(t, 21.0, series.Prices[1][2])
}

func TestBuildSeries_Empty(t *testing.T) {
	series := BuildSeries(map[string][]Bar{})
	assert.Empty(t, series.Symbols)
	assert.Empty(t, series.Dates)
	assert.Equal(t, 0, series.Len())
}

func TestYahooClient_DailyCloses(t *testing.T) {
	ts1 := day(2024, 1, 2).Unix()
	ts2 := day(2024, 1, 3).Unix()
	ts3 := day(2024, 1, 4).Unix()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v8/finance/chart/AAPL")
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"chart": {
				"result": [{
					"timestamp": [` +
			intsJSON(ts1, ts2, ts3) + `],
					"indicators": {"quote": [{"close": [185.5, null, 186.25]}]}
				}],
				"error": null
			}
		}`))
	}))
	defer server.Close()

	client := NewYahooClient(testHTTPClient(), server.URL, logger.NewNop())

	bars, err := client.DailyCloses(context.Background(), "AAPL", day(2024, 1, 1), day(2024, 1, 5))
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, "AAPL", bars[0].Symbol)
	assert.Equal(t, day(2024, 1, 2), bars[0].Date)
	assert.Equal(t, 185.5, bars[0].Close)
	assert.True(t, math.IsNaN(bars[1].Close))
	assert.Equal(t, 186.25, bars[2].Close)
}

func TestYahooClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found"}}}`))
	}))
	defer server.Close()

	client := NewYahooClient(testHTTPClient(), server.URL, logger.NewNop())

	_, err := client.DailyCloses(context.Background(), "NOPE", day(2024, 1, 1), day(2024, 1, 5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestYahooClient_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewYahooClient(testHTTPClient(), server.URL, logger.NewNop())

	_, err := client.DailyCloses(context.Background(), "AAPL", day(2024, 1, 1), day(2024, 1, 5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

const constituentsHTML = `
<html><body>
<table id="constituents" class="wikitable">
<tbody>
<tr><th>Symbol</th><th>Security</th><th>GICS Sector</th></tr>
<tr><td>AAPL</td><td>Apple Inc.</td><td>Information Technology</td></tr>
<tr><td>BRK.B</td><td>Berkshire Hathaway</td><td>Financials</td></tr>
<tr><td>JPM</td><td>JPMorgan Chase</td><td>Financials</td></tr>
<tr><td>XOM</td><td>Exxon Mobil</td><td>Energy</td></tr>
</tbody>
</table>
</body></html>`

func TestParseConstituents(t *testing.T) {
	sectors, err := ParseConstituents(strings.NewReader(constituentsHTML))
	require.NoError(t, err)
	require.Len(t, sectors, 4)

	assert.Equal(t, "Information Technology", sectors["AAPL"])
	assert.Equal(t, "Financials", sectors["BRK-B"], "dotted classes normalize to dashes")
	assert.Equal(t, "Energy", sectors["XOM"])
}

func TestParseConstituents_NoTable(t *testing.T) {
	_, err := ParseConstituents(strings.NewReader("<html><body><p>nothing</p></body></html>"))
	assert.Error(t, err)
}

func TestSectorClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(constituentsHTML))
	}))
	defer server.Close()

	client := NewSectorClient(testHTTPClient(), server.URL, logger.NewNop())

	sectors, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, sectors, 4)
}

func TestBySector(t *testing.T) {
	sectors := map[string]string{
		"JPM":   "Financials",
		"BRK-B": "Financials",
		"AAPL":  "Information Technology",
	}

	groups := BySector(sectors)
	assert.Equal(t, []string{"BRK-B", "JPM"}, groups["Financials"])
	assert.Equal(t, []string{"AAPL"}, groups["Information Technology"])

	assert.Equal(t, []string{"BRK-B", "JPM"}, SectorSymbols(sectors, "financials"))
	assert.Empty(t, SectorSymbols(sectors, "Utilities"))
}

func TestSP500Tickers(t *testing.T) {
	tickers := SP500Tickers()
	require.Greater(t, len(tickers), 450)

	seen := make(map[string]bool, len(tickers))
	for _, tk := range tickers {
		assert.NotContains(t, tk, ".", "share classes use dashes")
		assert.False(t, seen[tk], "duplicate ticker %s", tk)
		seen[tk] = true
	}

	// Survivorship-bias guard: delisted names stay in the universe.
	assert.True(t, seen["FRCB"])
	assert.True(t, seen["SIVBQ"])
	assert.True(t, seen["BRK-B"])
	assert.True(t, seen["AAPL"])

	// Callers get a copy, not the backing array.
	tickers[0] = "MUTATED"
	assert.NotEqual(t, "MUTATED", SP500Tickers()[0])
}

type fakeDater struct {
	dates map[string]time.Time
}

func (f *fakeDater) LatestDate(_ context.Context, symbol string) (time.Time, error) {
	d, ok := f.dates[symbol]
	if !ok {
		return time.Time{}, errors.New("no rows")
	}
	return d, nil
}

func TestCheckCoverage(t *testing.T) {
	asOf := day(2024, 6, 28)
	repo := &fakeDater{dates: map[string]time.Time{
		"AAPL": day(2024, 6, 27),
		"LEH":  day(2008, 9, 15),
		"TWTR": day(2022, 10, 27),
	}}

	report, err := CheckCoverage(context.Background(), repo, []string{"AAPL", "LEH", "TWTR", "NEWIPO"}, asOf, 7*24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Fresh)
	assert.Equal(t, []string{"NEWIPO"}, report.Missing)
	require.Len(t, report.Stale, 2)
	assert.Equal(t, "LEH", report.Stale[0].Symbol)
	assert.Equal(t, "TWTR", report.Stale[1].Symbol)
	assert.Equal(t, day(2008, 9, 15), report.Stale[0].LastDate)
}

func TestCheckCoverage_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CheckCoverage(ctx, &fakeDater{}, []string{"AAPL"}, day(2024, 6, 28), time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func intsJSON(vals ...int64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ", ")
}
