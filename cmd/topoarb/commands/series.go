package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/apexquant/topoarb/internal/backtest"
	"github.com/apexquant/topoarb/internal/marketdata"
	"github.com/apexquant/topoarb/pkg/config"
	"github.com/apexquant/topoarb/pkg/database"
	"github.com/apexquant/topoarb/pkg/httputil"
	"github.com/apexquant/topoarb/pkg/logger"
)

// loadSeries assembles an aligned price series for the universe.
// Postgres is preferred when configured; otherwise closes are pulled
// straight from the market data API.
func loadSeries(ctx context.Context, cfg *config.Config, symbols []string, from, to time.Time, log *logger.Logger) (backtest.Series, error) {
	if cfg.Database.URL != "" {
		db, err := database.New(cfg)
		if err != nil {
			return backtest.Series{}, fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		repo := marketdata.NewRepository(db.Pool)
		series, err := seriesFromStore(ctx, repo, symbols, from, to, log)
		if err == nil && series.Len() > 0 {
			return series, nil
		}
		log.Warn("Stored data unavailable, falling back to remote fetch")
	}

	provider := marketdata.NewYahooClient(httputil.New(cfg, log), cfg.Market.BaseURL, log)
	return seriesFromProvider(ctx, provider, symbols, from, to, log)
}

func seriesFromStore(ctx context.Context, repo *marketdata.Repository, symbols []string, from, to time.Time, log *logger.Logger) (backtest.Series, error) {
	bars := make(map[string][]marketdata.Bar, len(symbols))
	for _, sym := range symbols {
		bs, err := repo.GetCloses(ctx, sym, from, to)
		if err != nil {
			return backtest.Series{}, err
		}
		if len(bs) > 0 {
			bars[sym] = bs
		}
	}
	if len(bars) == 0 {
		return backtest.Series{}, fmt.Errorf("no stored closes in range")
	}
	return marketdata.BuildSeries(bars), nil
}

func seriesFromProvider(ctx context.Context, provider marketdata.Provider, symbols []string, from, to time.Time, log *logger.Logger) (backtest.Series, error) {
	bars := make(map[string][]marketdata.Bar, len(symbols))
	for _, sym := range symbols {
		bs, err := provider.DailyCloses(ctx, sym, from, to)
		if err != nil {
			log.WithField("symbol", sym).WithError(err).Warn("Fetch failed, symbol skipped")
			continue
		}
		if len(bs) > 0 {
			bars[sym] = bs
		}
	}
	if len(bars) < 2 {
		return backtest.Series{}, fmt.Errorf("fetched data for only %d symbols", len(bars))
	}
	return marketdata.BuildSeries(bars), nil
}

// parseDateRange parses --from/--to, defaulting --to to today.
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}

	to := time.Now()
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
		}
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date must precede end date")
	}
	return from, to, nil
}
