// Package marketdata supplies the engine's price input: a remote daily
// close provider, a Postgres repository acting as the local store, sector
// membership, and delisting coverage checks. The engine core never
// touches this package; orchestrators assemble windows from it.
package marketdata

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/apexquant/topoarb/internal/backtest"
)

// Bar is one daily close observation.
type Bar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
}

// Provider fetches daily closes for one symbol over a date range.
type Provider interface {
	DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error)
}

// BuildSeries aligns per-symbol bars onto the union of their dates.
// Dates a symbol is missing become NaN gaps, which the returns builder
// handles explicitly downstream.
func BuildSeries(bars map[string][]Bar) backtest.Series {
	dateSet := make(map[time.Time]struct{})
	for _, bs := range bars {
		for _, b := range bs {
			dateSet[b.Date.Truncate(24*time.Hour)] = struct{}{}
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	symbols := make([]string, 0, len(bars))
	for sym := range bars {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}

	series := backtest.Series{Symbols: symbols, Dates: dates}
	for _, sym := range symbols {
		prices := make([]float64, len(dates))
		for i := range prices {
			prices[i] = math.NaN()
		}
		for _, b := range bars[sym] {
			if i, ok := index[b.Date.Truncate(24*time.Hour)]; ok {
				prices[i] = b.Close
			}
		}
		series.Prices = append(series.Prices, prices)
	}
	return series
}
