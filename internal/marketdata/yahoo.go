package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/apexquant/topoarb/pkg/httputil"
	"github.com/apexquant/topoarb/pkg/logger"
)

// YahooClient fetches daily closes from a Yahoo-chart-compatible API.
// Rate limiting and retries live in the shared HTTP client.
type YahooClient struct {
	http    *httputil.Client
	baseURL string
	log     *logger.Logger
}

// NewYahooClient creates a provider against the given chart API base URL.
func NewYahooClient(http *httputil.Client, baseURL string, log *logger.Logger) *YahooClient {
	return &YahooClient{http: http, baseURL: baseURL, log: log}
}

// chartResponse mirrors the chart API payload, limited to what we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyCloses implements Provider. Null closes in the payload come back
// as NaN bars so gaps stay explicit.
func (c *YahooClient) DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		c.baseURL, url.PathEscape(symbol), from.Unix(), to.Unix())

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("fetch %s: status %d", symbol, resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", symbol, err)
	}

	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("fetch %s: %s (%s)", symbol,
			payload.Chart.Error.Description, payload.Chart.Error.Code)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("fetch %s: empty chart result", symbol)
	}

	result := payload.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		close := math.NaN()
		if i < len(closes) && closes[i] != nil {
			close = *closes[i]
		}
		bars = append(bars, Bar{
			Symbol: symbol,
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close:  close,
		})
	}

	c.log.WithFields(map[string]interface{}{
		"symbol": symbol,
		"bars":   len(bars),
	}).Debug("Fetched daily closes")

	return bars, nil
}
