package marketdata

import (
	"context"
	"sort"
	"time"
)

// latestDater is the repository slice the coverage check needs.
type latestDater interface {
	LatestDate(ctx context.Context, symbol string) (time.Time, error)
}

// CoverageReport flags symbols whose stored data has gone stale, the
// usual sign of a delisting or a broken feed.
type CoverageReport struct {
	AsOf     time.Time       `json:"as_of"`
	MaxAge   time.Duration   `json:"-"`
	Stale    []StaleSymbol   `json:"stale"`
	Missing  []string        `json:"missing"`
	Fresh    int             `json:"fresh"`
}

// StaleSymbol is one symbol with its last observed date.
type StaleSymbol struct {
	Symbol   string    `json:"symbol"`
	LastDate time.Time `json:"last_date"`
}

// CheckCoverage inspects each symbol's latest stored date. Symbols with
// no data at all land in Missing; symbols older than maxAge in Stale.
func CheckCoverage(ctx context.Context, repo latestDater, symbols []string, asOf time.Time, maxAge time.Duration) (*CoverageReport, error) {
	report := &CoverageReport{AsOf: asOf, MaxAge: maxAge}

	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		last, err := repo.LatestDate(ctx, sym)
		if err != nil {
			report.Missing = append(report.Missing, sym)
			continue
		}
		if asOf.Sub(last) > maxAge {
			report.Stale = append(report.Stale, StaleSymbol{Symbol: sym, LastDate: last})
			continue
		}
		report.Fresh++
	}

	sort.Slice(report.Stale, func(i, j int) bool {
		return report.Stale[i].Symbol < report.Stale[j].Symbol
	})
	sort.Strings(report.Missing)
	return report, nil
}
