package jobs

import (
	"context"
	"time"

	"github.com/apexquant/topoarb/internal/marketdata"
	"github.com/apexquant/topoarb/pkg/logger"
)

// staleAfter marks a symbol suspect once it has gone this long without
// a stored close. Delistings show up here first.
const staleAfter = 10 * 24 * time.Hour

// CoverageJob audits stored data freshness for the universe.
type CoverageJob struct {
	repo    *marketdata.Repository
	symbols []string
	logger  *logger.Logger
}

// NewCoverageJob creates the weekly coverage audit.
func NewCoverageJob(repo *marketdata.Repository, symbols []string, log *logger.Logger) *CoverageJob {
	return &CoverageJob{repo: repo, symbols: symbols, logger: log}
}

func (j *CoverageJob) Name() string {
	return "data_coverage"
}

// Schedule runs Saturdays at 07:00.
func (j *CoverageJob) Schedule() string {
	return "0 0 7 * * 6"
}

func (j *CoverageJob) Run(ctx context.Context) error {
	report, err := marketdata.CheckCoverage(ctx, j.repo, j.symbols, time.Now(), staleAfter)
	if err != nil {
		return err
	}

	for _, s := range report.Stale {
		j.logger.WithFields(map[string]interface{}{
			"symbol":    s.Symbol,
			"last_date": s.LastDate.Format("2006-01-02"),
		}).Warn("Symbol data is stale, possible delisting")
	}
	for _, sym := range report.Missing {
		j.logger.WithField("symbol", sym).Warn("Symbol has no stored data")
	}

	j.logger.WithFields(map[string]interface{}{
		"fresh":   report.Fresh,
		"stale":   len(report.Stale),
		"missing": len(report.Missing),
	}).Info("Coverage check completed")
	return nil
}
