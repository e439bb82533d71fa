// Package backtest replays the signal engine over a historical price
// series: sliding window per step, rebalance every N steps, flat
// transaction costs on turnover, equity curve and performance metrics.
package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/apexquant/topoarb/internal/contracts"
	"github.com/apexquant/topoarb/internal/engine"
	"github.com/apexquant/topoarb/internal/returns"
	"github.com/apexquant/topoarb/internal/strategy"
	"github.com/apexquant/topoarb/pkg/logger"
)

// Series is the historical input: aligned daily closes per symbol, gaps
// marked NaN.
type Series struct {
	Symbols []string
	Dates   []time.Time
	Prices  [][]float64 // [asset][t]
}

// Len returns the number of samples in the series.
func (s Series) Len() int {
	if len(s.Prices) == 0 {
		return 0
	}
	return len(s.Prices[0])
}

// EquityPoint is one mark on the equity curve.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
	Return float64   `json:"return"` // cumulative since start
}

// Result holds a completed backtest.
type Result struct {
	RunID      string `json:"run_id"`
	StrategyID string `json:"strategy_id"`
	ConfigHash string `json:"config_hash"`

	Steps        int `json:"steps"`
	Rebalances   int `json:"rebalances"`
	SkippedSteps int `json:"skipped_steps"`
	HaltSteps    int `json:"halt_steps"`

	InitialEquity float64 `json:"initial_equity"`
	FinalEquity   float64 `json:"final_equity"`

	TotalReturn float64 `json:"total_return"`
	CAGR        float64 `json:"cagr"`
	Volatility  float64 `json:"volatility"`
	Sharpe      float64 `json:"sharpe"`
	Sortino     float64 `json:"sortino"`
	MaxDrawdown float64 `json:"max_drawdown"`
	WinRate     float64 `json:"win_rate"`

	Trades        int     `json:"trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	Turnover      float64 `json:"turnover"`
	CostPaid      float64 `json:"cost_paid"`

	EquityCurve []EquityPoint      `json:"equity_curve"`
	FinalState  engine.State       `json:"-"`
	StepResults []*engine.StepResult `json:"-"`
}

// Engine drives the replay.
type Engine struct {
	cfg *strategy.Config
	sig *engine.Engine
	log *logger.Logger
}

// NewEngine creates a backtest engine around a signal engine.
func NewEngine(cfg *strategy.Config, sig *engine.Engine, log *logger.Logger) *Engine {
	return &Engine{cfg: cfg, sig: sig, log: log}
}

// Run replays the series. Each trading day marks the portfolio to market;
// the signal engine only runs on rebalance days. Costs are charged as
// transaction_cost_bps on the turnover of signed position weights.
func (e *Engine) Run(ctx context.Context, series Series) (*Result, error) {
	lookback := e.cfg.Universe.LookbackDays
	if series.Len() <= lookback {
		return nil, fmt.Errorf("series has %d samples, need more than lookback %d: %w",
			series.Len(), lookback, contracts.ErrInsufficientData)
	}
	if len(series.Dates) != series.Len() {
		return nil, fmt.Errorf("series has %d dates for %d samples", len(series.Dates), series.Len())
	}

	hash, err := strategy.Hash(e.cfg)
	if err != nil {
		return nil, fmt.Errorf("hash config: %w", err)
	}

	result := &Result{
		RunID:         uuid.NewString(),
		StrategyID:    e.cfg.Meta.StrategyID,
		ConfigHash:    hash,
		InitialEquity: e.cfg.Backtest.InitialEquity,
	}

	e.log.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"strategy":  result.StrategyID,
		"symbols":   len(series.Symbols),
		"samples":   series.Len(),
		"lookback":  lookback,
		"rebalance": e.cfg.Backtest.RebalanceEvery,
	}).Info("Starting backtest")

	startTime := time.Now()

	st := engine.NewState(e.cfg, result.InitialEquity)
	equity := result.InitialEquity
	costRate := e.cfg.Backtest.TransactionCostBps / 10000.0

	prevWeights := map[string]float64{}

	for t := lookback; t < series.Len(); t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Mark to market with the previous step's positions.
		dayReturn := 0.0
		for sym, wgt := range prevWeights {
			r, ok := assetReturn(series, sym, t)
			if !ok {
				continue
			}
			dayReturn += wgt * r
		}
		equity *= 1 + dayReturn

		result.Steps++
		stepIdx := t - lookback

		if stepIdx%e.cfg.Backtest.RebalanceEvery == 0 {
			window := windowAt(series, t, lookback)

			var res *engine.StepResult
			st, res, err = e.sig.Step(ctx, st, window, equity)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", stepIdx, err)
			}
			result.StepResults = append(result.StepResults, res)

			if res.Skipped {
				result.SkippedSteps++
			} else {
				result.Rebalances++
				e.tally(result, res)

				newWeights := signedWeights(st.Portfolio)
				turnover := turnoverBetween(prevWeights, newWeights)
				cost := turnover * costRate
				equity *= 1 - cost
				result.Turnover += turnover
				result.CostPaid += cost
				prevWeights = newWeights
			}

			if st.Portfolio.Status == contracts.StatusDrawdownHalt {
				result.HaltSteps++
			}
		}

		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Date:   series.Dates[t],
			Equity: equity,
			Return: equity/result.InitialEquity - 1,
		})
	}

	result.FinalEquity = equity
	result.FinalState = st
	computeMetrics(result, series.Dates[lookback], series.Dates[series.Len()-1])

	e.log.WithFields(map[string]interface{}{
		"run_id":       result.RunID,
		"duration":     time.Since(startTime),
		"steps":        result.Steps,
		"rebalances":   result.Rebalances,
		"total_return": fmt.Sprintf("%.2f%%", result.TotalReturn*100),
		"sharpe":       fmt.Sprintf("%.2f", result.Sharpe),
		"max_drawdown": fmt.Sprintf("%.2f%%", result.MaxDrawdown*100),
	}).Info("Backtest completed")

	return result, nil
}

// tally counts closed trades from a step's decision output.
func (e *Engine) tally(result *Result, res *engine.StepResult) {
	for _, closed := range res.Decision.Closed {
		result.Trades++
		if closed.Return > 0 {
			result.WinningTrades++
		} else {
			result.LosingTrades++
		}
	}
}

// windowAt slices the lookback window ending at sample t inclusive.
func windowAt(series Series, t, lookback int) returns.Window {
	w := returns.Window{Symbols: series.Symbols}
	for _, prices := range series.Prices {
		w.Prices = append(w.Prices, prices[t-lookback+1:t+1])
	}
	return w
}

// assetReturn is the simple return of a symbol from sample t-1 to t.
func assetReturn(series Series, symbol string, t int) (float64, bool) {
	for i, sym := range series.Symbols {
		if sym != symbol {
			continue
		}
		prev, curr := series.Prices[i][t-1], series.Prices[i][t]
		if math.IsNaN(prev) || math.IsNaN(curr) || prev <= 0 || curr <= 0 {
			return 0, false
		}
		return curr/prev - 1, true
	}
	return 0, false
}

// signedWeights extracts the signed position weights from the portfolio.
func signedWeights(p contracts.PortfolioState) map[string]float64 {
	out := make(map[string]float64, len(p.Positions))
	for sym, pos := range p.Positions {
		out[sym] = pos.Signed()
	}
	return out
}

// turnoverBetween is the L1 distance between two weight vectors.
func turnoverBetween(prev, next map[string]float64) float64 {
	total := 0.0
	for sym, w := range next {
		d := w - prev[sym]
		if d < 0 {
			d = -d
		}
		total += d
	}
	for sym, w := range prev {
		if _, ok := next[sym]; !ok {
			if w < 0 {
				w = -w
			}
			total += w
		}
	}
	return total
}
