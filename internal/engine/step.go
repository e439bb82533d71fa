// Package engine orchestrates one evaluation step: window to returns and
// correlation, spatial diffusion and topological regime in parallel, then
// the decision engine. All cross-step state is threaded explicitly.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/apexquant/topoarb/internal/contracts"
	"github.com/apexquant/topoarb/internal/decision"
	"github.com/apexquant/topoarb/internal/returns"
	"github.com/apexquant/topoarb/internal/spatial"
	"github.com/apexquant/topoarb/internal/strategy"
	"github.com/apexquant/topoarb/internal/topology"
	"github.com/apexquant/topoarb/pkg/logger"
)

// StepResult is one step's full diagnostic output, exposed read-only to
// orchestrators and reporting.
type StepResult struct {
	Step        int                   `json:"step"`
	Symbols     []string              `json:"symbols"`
	Equilibrium map[string]float64    `json:"equilibrium"`
	Residuals   map[string]float64    `json:"residuals"` // EMA-smoothed
	ZScores     map[string]float64    `json:"zscores"`
	Topology    *topology.Result      `json:"topology"`
	Alpha       float64               `json:"alpha"` // effective, after regime scaling
	Decision    decision.StepOutput   `json:"decision"`
	Excluded    []returns.Exclusion   `json:"excluded,omitempty"`
	Skipped     bool                  `json:"skipped"`
	Degraded    bool                  `json:"degraded"` // solver fallback used
	Regime      contracts.RegimeLabel `json:"regime"`
}

// Engine wires the four modules under one strategy config.
type Engine struct {
	cfg     *strategy.Config
	builder returns.Builder
	topo    topology.Module
	decider decision.Engine
	log     *logger.Logger
}

// New builds an engine from a validated strategy config.
func New(cfg *strategy.Config, log *logger.Logger) *Engine {
	return &Engine{
		cfg: cfg,
		builder: returns.Builder{
			MinSamples: cfg.Universe.MinSamples,
			MaxGap:     cfg.Universe.MaxGapDays,
		},
		topo: topology.Module{
			LowCutoff:  cfg.Regime.EntropyLow,
			HighCutoff: cfg.Regime.EntropyHigh,
		},
		decider: decision.New(cfg.DecisionConfig()),
		log:     log,
	}
}

// Step evaluates one window. equity is the marked-to-market portfolio
// value from the orchestrator. The input state is never mutated; the
// returned state is the carried-forward successor.
//
// Recovery semantics: insufficient data skips the step and carries the
// portfolio unchanged; degenerate assets are excluded by the builder;
// solver failure falls back to the previous equilibrium per asset.
func (e *Engine) Step(ctx context.Context, st State, w returns.Window, equity float64) (State, *StepResult, error) {
	if err := ctx.Err(); err != nil {
		return st, nil, err
	}

	next := st.Clone()
	next.Step = st.Step + 1

	res := &StepResult{Step: next.Step}

	built, err := e.builder.Build(w)
	if err != nil {
		if errors.Is(err, contracts.ErrInsufficientData) {
			e.log.WithError(err).WithField("step", next.Step).Warn("Step skipped: insufficient data")
			res.Skipped = true
			next.Portfolio.Step = next.Step
			next.Portfolio.Equity = equity
			res.Decision.State = next.Portfolio
			return next, res, nil
		}
		return st, nil, fmt.Errorf("build window: %w", err)
	}
	res.Symbols = built.Symbols
	res.Excluded = built.Excluded
	for _, ex := range built.Excluded {
		e.log.WithError(ex.Reason).WithField("symbol", ex.Symbol).Warn("Asset excluded from step universe")
	}

	// Observed state: the latest cross-section of returns.
	xObs := make([]float64, len(built.Symbols))
	for i, series := range built.Returns {
		xObs[i] = series[len(series)-1]
	}

	// Spatial and topological views are independent; run them in parallel
	// and join before the decision stage.
	type spatialOut struct {
		graph *spatial.Graph
		eq    []float64
		err   error
	}
	type topoOut struct {
		res *topology.Result
		err error
	}

	spatialCh := make(chan spatialOut, 1)
	topoCh := make(chan topoOut, 1)

	go func() {
		g, err := spatial.BuildGraph(built.Corr, e.cfg.WeightRule(), e.cfg.Signal.CorrelationThreshold)
		if err != nil {
			spatialCh <- spatialOut{err: err}
			return
		}
		eq, err := spatial.Equilibrium(g, e.cfg.Signal.Alpha, xObs)
		spatialCh <- spatialOut{graph: g, eq: eq, err: err}
	}()
	go func() {
		t, err := e.topo.Analyze(built.Corr)
		topoCh <- topoOut{res: t, err: err}
	}()

	var sp spatialOut
	var tp topoOut
	for i := 0; i < 2; i++ {
		select {
		case sp = <-spatialCh:
		case tp = <-topoCh:
		case <-ctx.Done():
			return st, nil, ctx.Err()
		}
	}

	if tp.err != nil {
		return st, nil, fmt.Errorf("topology: %w", tp.err)
	}
	res.Topology = tp.res
	res.Regime = tp.res.Regime

	// Dynamic alpha: under CHAOTIC the solve is redone with the scaled
	// coefficient, reusing the graph from the parallel phase.
	alpha := e.cfg.EffectiveAlpha(tp.res.Regime)
	res.Alpha = alpha
	eq := sp.eq
	solveErr := sp.err
	if solveErr == nil && sp.graph != nil && alpha != e.cfg.Signal.Alpha {
		eq, solveErr = spatial.Equilibrium(sp.graph, alpha, xObs)
	}

	switch {
	case solveErr == nil:
	case errors.Is(solveErr, contracts.ErrSolverFailure):
		e.log.WithError(solveErr).WithField("step", next.Step).Warn("Solver failed, reusing previous equilibrium")
		res.Degraded = true
		eq = make([]float64, len(built.Symbols))
		for i, sym := range built.Symbols {
			prev, ok := next.PrevEq[sym]
			if !ok {
				prev = xObs[i] // zero residual when nothing to fall back to
			}
			eq[i] = prev
		}
	default:
		return st, nil, fmt.Errorf("spatial: %w", solveErr)
	}

	raw := spatial.Residuals(xObs, eq)

	res.Equilibrium = make(map[string]float64, len(built.Symbols))
	res.Residuals = make(map[string]float64, len(built.Symbols))
	res.ZScores = make(map[string]float64, len(built.Symbols))

	emaW := e.cfg.Signal.ResidualEMA
	prices := make(map[string]float64, len(built.Symbols))
	for i, sym := range built.Symbols {
		smoothed := raw[i]
		if prevEMA, ok := next.EMA[sym]; ok {
			smoothed = emaW*raw[i] + (1-emaW)*prevEMA
		}
		next.EMA[sym] = smoothed
		next.PrevEq[sym] = eq[i]

		res.Equilibrium[sym] = eq[i]
		res.Residuals[sym] = smoothed
		res.ZScores[sym] = next.History.Observe(sym, smoothed)

		if p, ok := lastValidPrice(w, sym); ok {
			prices[sym] = p
		}
	}

	out := e.decider.Evaluate(next.Portfolio, decision.StepInput{
		Step:    next.Step,
		Symbols: built.Symbols,
		Prices:  prices,
		ZScores: res.ZScores,
		Regime:  tp.res.Regime,
		Equity:  equity,
	})
	next.Portfolio = out.State
	res.Decision = out

	if out.Halted {
		e.log.WithField("drawdown", out.State.Drawdown()).Warn("Portfolio entered drawdown halt")
	}

	return next, res, nil
}

// lastValidPrice finds a symbol's most recent non-gap price in the window.
func lastValidPrice(w returns.Window, symbol string) (float64, bool) {
	for i, sym := range w.Symbols {
		if sym != symbol {
			continue
		}
		series := w.Prices[i]
		for j := len(series) - 1; j >= 0; j-- {
			if !math.IsNaN(series[j]) && series[j] > 0 {
				return series[j], true
			}
		}
		return 0, false
	}
	return 0, false
}
