// Package jobs holds the scheduled work of the live loop: daily price
// ingestion, the signal evaluation tick and the weekly coverage check.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/apexquant/topoarb/internal/marketdata"
	"github.com/apexquant/topoarb/pkg/logger"
)

// ingestWindowDays covers weekends, holidays and late corrections.
const ingestWindowDays = 7

// IngestJob pulls recent daily closes for the universe into Postgres
// after the close.
type IngestJob struct {
	provider marketdata.Provider
	repo     *marketdata.Repository
	symbols  []string
	logger   *logger.Logger
}

// NewIngestJob creates the ingestion job for a resolved universe.
func NewIngestJob(provider marketdata.Provider, repo *marketdata.Repository, symbols []string, log *logger.Logger) *IngestJob {
	return &IngestJob{
		provider: provider,
		repo:     repo,
		symbols:  symbols,
		logger:   log,
	}
}

func (j *IngestJob) Name() string {
	return "price_ingest"
}

// Schedule runs weekdays at 16:30, after the close.
func (j *IngestJob) Schedule() string {
	return "0 30 16 * * 1-5"
}

// Run fetches the trailing window per symbol and upserts it. A symbol
// failure is logged and skipped; the job fails only when every symbol
// fails.
func (j *IngestJob) Run(ctx context.Context) error {
	to := time.Now()
	from := to.AddDate(0, 0, -ingestWindowDays)

	var failed int
	for _, sym := range j.symbols {
		if err := ctx.Err(); err != nil {
			return err
		}

		bars, err := j.provider.DailyCloses(ctx, sym, from, to)
		if err != nil {
			failed++
			j.logger.WithField("symbol", sym).WithError(err).Warn("Price fetch failed")
			continue
		}
		if err := j.repo.SaveBars(ctx, bars); err != nil {
			failed++
			j.logger.WithField("symbol", sym).WithError(err).Warn("Price save failed")
		}
	}

	if failed == len(j.symbols) && len(j.symbols) > 0 {
		return fmt.Errorf("ingest failed for all %d symbols", failed)
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(j.symbols),
		"failed":  failed,
	}).Info("Price ingest completed")
	return nil
}
