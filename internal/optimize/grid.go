// Package optimize runs a grid search over strategy parameters, replaying
// an independent backtest per candidate. Candidates are immutable
// snapshots, so they evaluate safely in parallel.
package optimize

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/apexquant/topoarb/internal/backtest"
	"github.com/apexquant/topoarb/internal/engine"
	"github.com/apexquant/topoarb/internal/strategy"
	"github.com/apexquant/topoarb/pkg/logger"
)

// Grid is the parameter space to sweep. Empty axes keep the base value.
type Grid struct {
	Alphas       []float64
	NetExposures []float64
	Lookbacks    []int
	Rebalances   []int
}

// DefaultGrid is a coarse sweep useful as a starting point.
func DefaultGrid() Grid {
	return Grid{
		Alphas:       []float64{0.3, 0.6},
		NetExposures: []float64{0.4, 0.7, 0.9},
		Lookbacks:    []int{80, 120},
		Rebalances:   []int{5},
	}
}

// Candidate is one evaluated point of the grid.
type Candidate struct {
	Alpha       float64          `json:"alpha"`
	NetExposure float64          `json:"net_exposure"`
	Lookback    int              `json:"lookback"`
	Rebalance   int              `json:"rebalance"`
	Result      *backtest.Result `json:"result,omitempty"`
	Err         error            `json:"-"`
}

// Optimizer sweeps the grid against one historical series.
type Optimizer struct {
	base    *strategy.Config
	log     *logger.Logger
	Workers int
}

// New creates an optimizer over a validated base config.
func New(base *strategy.Config, log *logger.Logger) *Optimizer {
	return &Optimizer{base: base, log: log, Workers: runtime.NumCPU()}
}

// Search evaluates every grid point and returns candidates ranked by
// Sharpe, best first. Candidates whose derived config fails validation
// carry the error instead of a result.
func (o *Optimizer) Search(ctx context.Context, series backtest.Series, grid Grid) ([]Candidate, error) {
	candidates := expand(o.base, grid)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("empty parameter grid")
	}

	o.log.WithFields(map[string]interface{}{
		"candidates": len(candidates),
		"workers":    o.Workers,
	}).Info("Starting grid search")

	workers := o.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				o.evaluate(ctx, series, &candidates[idx])
			}
		}()
	}

	for idx := range candidates {
		if err := ctx.Err(); err != nil {
			close(jobs)
			wg.Wait()
			return nil, err
		}
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	sort.SliceStable(candidates, func(a, b int) bool {
		return sharpeOf(candidates[a]) > sharpeOf(candidates[b])
	})

	if best := candidates[0]; best.Result != nil {
		o.log.WithFields(map[string]interface{}{
			"alpha":        best.Alpha,
			"net_exposure": best.NetExposure,
			"lookback":     best.Lookback,
			"sharpe":       fmt.Sprintf("%.2f", best.Result.Sharpe),
		}).Info("Grid search completed")
	}

	return candidates, nil
}

func (o *Optimizer) evaluate(ctx context.Context, series backtest.Series, c *Candidate) {
	cfg := *o.base
	cfg.Signal.Alpha = c.Alpha
	cfg.Risk.NetExposure = c.NetExposure
	cfg.Universe.LookbackDays = c.Lookback
	cfg.Backtest.RebalanceEvery = c.Rebalance
	if cfg.Universe.MinSamples > cfg.Universe.LookbackDays {
		cfg.Universe.MinSamples = cfg.Universe.LookbackDays
	}

	if err := strategy.Validate(&cfg); err != nil {
		c.Err = err
		return
	}

	bt := backtest.NewEngine(&cfg, engine.New(&cfg, o.log), o.log)
	res, err := bt.Run(ctx, series)
	if err != nil {
		c.Err = err
		return
	}
	c.Result = res
}

// expand enumerates the cartesian product of the grid axes, defaulting
// empty axes to the base config's value.
func expand(base *strategy.Config, grid Grid) []Candidate {
	alphas := grid.Alphas
	if len(alphas) == 0 {
		alphas = []float64{base.Signal.Alpha}
	}
	exposures := grid.NetExposures
	if len(exposures) == 0 {
		exposures = []float64{base.Risk.NetExposure}
	}
	lookbacks := grid.Lookbacks
	if len(lookbacks) == 0 {
		lookbacks = []int{base.Universe.LookbackDays}
	}
	rebalances := grid.Rebalances
	if len(rebalances) == 0 {
		rebalances = []int{base.Backtest.RebalanceEvery}
	}

	var out []Candidate
	for _, a := range alphas {
		for _, ne := range exposures {
			for _, lb := range lookbacks {
				for _, rb := range rebalances {
					out = append(out, Candidate{
						Alpha:       a,
						NetExposure: ne,
						Lookback:    lb,
						Rebalance:   rb,
					})
				}
			}
		}
	}
	return out
}

func sharpeOf(c Candidate) float64 {
	if c.Result == nil {
		return -1e18
	}
	return c.Result.Sharpe
}
