package risk

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
)

// MonteCarloSimulator runs correlated GBM simulations of a signed
// portfolio over a fixed horizon.
type MonteCarloSimulator struct {
	config MonteCarloConfig
	rng    *rand.Rand
}

// NewMonteCarloSimulator creates a simulator. A non-zero seed makes runs
// reproducible.
func NewMonteCarloSimulator(config MonteCarloConfig) *MonteCarloSimulator {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MonteCarloSimulator{
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// EstimateAssets derives per-asset daily drift and volatility from return
// history, attaching the given signed weights. Symbols without history or
// weight are skipped.
func EstimateAssets(history map[string][]float64, weights map[string]float64) []Asset {
	symbols := make([]string, 0, len(weights))
	for sym := range weights {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var assets []Asset
	for _, sym := range symbols {
		rets, ok := history[sym]
		if !ok || len(rets) < 2 {
			continue
		}
		assets = append(assets, Asset{
			Symbol: sym,
			Mu:     Mean(rets),
			Sigma:  StdDev(rets),
			Weight: weights[sym],
		})
	}
	return assets
}

// Simulate draws NumSimulations horizon paths. Each day every asset moves
// by mu + sigma*eps with eps drawn from a correlated standard normal
// vector (Cholesky factor of the correlation matrix); the portfolio
// return compounds the weighted cross-section.
func (mc *MonteCarloSimulator) Simulate(ctx context.Context, assets []Asset, corr [][]float64) (*MonteCarloResult, error) {
	n := len(assets)
	if n == 0 {
		return nil, fmt.Errorf("no assets to simulate")
	}
	if len(corr) != n {
		return nil, fmt.Errorf("correlation matrix is %dx%d, have %d assets", len(corr), len(corr), n)
	}
	if mc.config.NumSimulations <= 0 || mc.config.HorizonDays <= 0 {
		return nil, fmt.Errorf("num_simulations and horizon_days must be > 0")
	}

	chol, ok := choleskyLower(corr)
	if !ok {
		// Correlation estimate is not PSD within tolerance; fall back to
		// independent shocks.
		chol = identityLower(n)
	}

	results := make([]float64, mc.config.NumSimulations)
	z := make([]float64, n)
	eps := make([]float64, n)

	for i := 0; i < mc.config.NumSimulations; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		equity := 1.0
		for d := 0; d < mc.config.HorizonDays; d++ {
			for k := range z {
				z[k] = mc.rng.NormFloat64()
			}
			correlate(chol, z, eps)

			dayReturn := 0.0
			for k, a := range assets {
				dayReturn += a.Weight * (a.Mu + a.Sigma*eps[k])
			}
			equity *= 1 + dayReturn
		}
		results[i] = equity - 1
	}

	return mc.summarize(results), nil
}

// SimulateSeries resamples a realized portfolio-return series over the
// horizon (historical bootstrap), for when no per-asset decomposition is
// available.
func (mc *MonteCarloSimulator) SimulateSeries(ctx context.Context, portfolioReturns []float64) (*MonteCarloResult, error) {
	if len(portfolioReturns) == 0 {
		return nil, fmt.Errorf("empty portfolio returns")
	}

	results := make([]float64, mc.config.NumSimulations)
	for i := 0; i < mc.config.NumSimulations; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		cum := 1.0
		for d := 0; d < mc.config.HorizonDays; d++ {
			cum *= 1 + portfolioReturns[mc.rng.Intn(len(portfolioReturns))]
		}
		results[i] = cum - 1
	}

	return mc.summarize(results), nil
}

func (mc *MonteCarloSimulator) summarize(returns []float64) *MonteCarloResult {
	var95 := HistoricalVaR(returns, 0.95)
	var99 := HistoricalVaR(returns, 0.99)

	losses := 0
	for _, r := range returns {
		if r < 0 {
			losses++
		}
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	percentiles := make(map[int]float64)
	for _, p := range []int{1, 5, 10, 25, 50, 75, 90, 95, 99} {
		percentiles[p] = Percentile(sorted, float64(p))
	}

	return &MonteCarloResult{
		RunID:       uuid.NewString(),
		RunDate:     time.Now(),
		Config:      mc.config,
		MeanReturn:  Mean(returns),
		StdDev:      StdDev(returns),
		ProbLoss:    float64(losses) / float64(len(returns)),
		VaR95:       var95.VaR,
		VaR99:       var99.VaR,
		CVaR95:      var95.CVaR,
		CVaR99:      var99.CVaR,
		Percentiles: percentiles,
	}
}

// choleskyLower factors a correlation matrix; ok=false when a pivot goes
// non-positive.
func choleskyLower(a [][]float64) ([][]float64, bool) {
	n := len(a)
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				if sum <= 0 || math.IsNaN(sum) {
					return nil, false
				}
				l[i][i] = math.Sqrt(sum)
			} else {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l, true
}

func identityLower(n int) [][]float64 {
	l := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
		l[i][i] = 1
	}
	return l
}

// correlate computes eps = L * z in place.
func correlate(l [][]float64, z, eps []float64) {
	for i := range l {
		sum := 0.0
		for k := 0; k <= i; k++ {
			sum += l[i][k] * z[k]
		}
		eps[i] = sum
	}
}
