// Package risk provides arm's-length risk analytics over engine output:
// historical and parametric VaR/CVaR, and a Monte Carlo simulator with
// Cholesky-correlated GBM shocks. Nothing here feeds back into the
// per-step decision path.
package risk

import "time"

// VaRResult expresses VaR and CVaR as positive loss fractions.
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"`
}

// MonteCarloConfig parameterizes a simulation run.
type MonteCarloConfig struct {
	NumSimulations int   `json:"num_simulations"`
	HorizonDays    int   `json:"horizon_days"`
	Seed           int64 `json:"seed"` // 0 seeds from the clock
}

// MonteCarloResult summarizes the simulated horizon-return distribution.
type MonteCarloResult struct {
	RunID   string           `json:"run_id"`
	RunDate time.Time        `json:"run_date"`
	Config  MonteCarloConfig `json:"config"`

	MeanReturn float64 `json:"mean_return"`
	StdDev     float64 `json:"std_dev"`
	ProbLoss   float64 `json:"prob_loss"`

	VaR95  float64 `json:"var_95"`
	VaR99  float64 `json:"var_99"`
	CVaR95 float64 `json:"cvar_95"`
	CVaR99 float64 `json:"cvar_99"`

	Percentiles map[int]float64 `json:"percentiles"`
}

// Asset describes one simulated asset: daily drift and volatility
// estimated from history, plus its signed portfolio weight.
type Asset struct {
	Symbol string  `json:"symbol"`
	Mu     float64 `json:"mu"`    // daily drift
	Sigma  float64 `json:"sigma"` // daily volatility
	Weight float64 `json:"weight"`
}
