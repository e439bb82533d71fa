package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexquant/topoarb/internal/contracts"
	"github.com/apexquant/topoarb/internal/engine"
	"github.com/apexquant/topoarb/internal/strategy"
	"github.com/apexquant/topoarb/pkg/logger"
)

func testStrategy() *strategy.Config {
	return &strategy.Config{
		Meta: strategy.Meta{StrategyID: "bt_test_v1", Version: 1},
		Universe: strategy.Universe{
			Symbols:      []string{"AAA", "BBB", "CCC", "DDD"},
			LookbackDays: 12,
			MinSamples:   6,
			MaxGapDays:   2,
		},
		Signal: strategy.Signal{
			Alpha:                0.5,
			WeightRule:           "rescale",
			CorrelationThreshold: 0.6,
			EntryZThreshold:      1.0,
			ZScoreWindow:         20,
			ZScoreMinObs:         2,
			ResidualEMA:          0.2,
			ChaoticAlphaScale:    0.33,
		},
		Regime: strategy.Regime{
			EntropyLow:  0.3,
			EntropyHigh: 0.8,
			Multipliers: strategy.Multipliers{Stable: 1.0, Transitional: 0.6, Chaotic: 0.25},
		},
		Risk: strategy.Risk{
			StopLossPct:    0.08,
			MaxDrawdownPct: 0.25,
			RecoveryPct:    0.15,
			Leverage:       1.0,
			NetExposure:    0.5,
		},
		Backtest: strategy.Backtest{
			RebalanceEvery:     2,
			TransactionCostBps: 10,
			InitialEquity:      1.0,
		},
	}
}

func testSeries(samples int) Series {
	symbols := []string{"AAA", "BBB", "CCC", "DDD"}
	s := Series{Symbols: symbols}
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for t := 0; t < samples; t++ {
		s.Dates = append(s.Dates, start.AddDate(0, 0, t))
	}
	for i := range symbols {
		series := make([]float64, samples)
		p := 100.0 * float64(i+1)
		for t := 0; t < samples; t++ {
			drift := 0.012*math.Sin(0.7*float64(t)+float64(i)) + 0.001*float64(i%2)
			p *= 1 + drift
			series[t] = p
		}
		s.Prices = append(s.Prices, series)
	}
	return s
}

func newTestBacktest(t *testing.T, cfg *strategy.Config) *Engine {
	t.Helper()
	require.NoError(t, strategy.Validate(cfg))
	log := logger.NewNop()
	return NewEngine(cfg, engine.New(cfg, log), log)
}

func TestRun_ProducesEquityCurve(t *testing.T) {
	cfg := testStrategy()
	bt := newTestBacktest(t, cfg)

	series := testSeries(60)
	result, err := bt.Run(context.Background(), series)
	require.NoError(t, err)

	wantSteps := 60 - cfg.Universe.LookbackDays
	assert.Equal(t, wantSteps, result.Steps)
	assert.Len(t, result.EquityCurve, wantSteps)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "bt_test_v1", result.StrategyID)
	assert.NotEmpty(t, result.ConfigHash)

	last := result.EquityCurve[len(result.EquityCurve)-1]
	assert.Equal(t, result.FinalEquity, last.Equity)
	assert.InDelta(t, result.FinalEquity-1, result.TotalReturn, 1e-12)

	assert.GreaterOrEqual(t, result.MaxDrawdown, 0.0)
	assert.LessOrEqual(t, result.MaxDrawdown, 1.0)
	assert.Greater(t, result.FinalEquity, 0.0)
}

func TestRun_RebalanceFrequency(t *testing.T) {
	cfg := testStrategy()
	cfg.Backtest.RebalanceEvery = 4
	bt := newTestBacktest(t, cfg)

	result, err := bt.Run(context.Background(), testSeries(60))
	require.NoError(t, err)

	// Every fourth step triggers the engine; the rest only mark to market.
	wantRuns := (60 - cfg.Universe.LookbackDays + 3) / 4
	assert.Equal(t, wantRuns, result.Rebalances+result.SkippedSteps)
}

func TestRun_SeriesTooShort(t *testing.T) {
	cfg := testStrategy()
	bt := newTestBacktest(t, cfg)

	_, err := bt.Run(context.Background(), testSeries(cfg.Universe.LookbackDays))
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestRun_CostsReduceEquity(t *testing.T) {
	free := testStrategy()
	free.Backtest.TransactionCostBps = 0

	costly := testStrategy()
	costly.Backtest.TransactionCostBps = 50

	rFree, err := newTestBacktest(t, free).Run(context.Background(), testSeries(60))
	require.NoError(t, err)
	rCostly, err := newTestBacktest(t, costly).Run(context.Background(), testSeries(60))
	require.NoError(t, err)

	assert.Equal(t, 0.0, rFree.CostPaid)
	if rCostly.Turnover > 0 {
		assert.Greater(t, rCostly.CostPaid, 0.0)
		assert.Less(t, rCostly.FinalEquity, rFree.FinalEquity)
	}
}

func TestRun_Deterministic(t *testing.T) {
	cfg := testStrategy()

	r1, err := newTestBacktest(t, cfg).Run(context.Background(), testSeries(60))
	require.NoError(t, err)
	r2, err := newTestBacktest(t, cfg).Run(context.Background(), testSeries(60))
	require.NoError(t, err)

	assert.Equal(t, r1.FinalEquity, r2.FinalEquity)
	assert.Equal(t, r1.EquityCurve, r2.EquityCurve)
	assert.Equal(t, r1.Trades, r2.Trades)
	assert.NotEqual(t, r1.RunID, r2.RunID)
}

func TestRun_CanceledContext(t *testing.T) {
	bt := newTestBacktest(t, testStrategy())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bt.Run(ctx, testSeries(60))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMaxDrawdown(t *testing.T) {
	curve := []EquityPoint{
		{Equity: 1.0}, {Equity: 1.2}, {Equity: 0.9}, {Equity: 1.1}, {Equity: 1.3},
	}
	assert.InDelta(t, 0.25, maxDrawdown(curve), 1e-12)
	assert.Equal(t, 0.0, maxDrawdown(nil))
}

func TestTurnoverBetween(t *testing.T) {
	prev := map[string]float64{"A": 0.5, "B": -0.3}
	next := map[string]float64{"A": 0.2, "C": 0.4}

	// |0.2-0.5| + |0.4-0| + |-0.3 dropped| = 0.3 + 0.4 + 0.3
	assert.InDelta(t, 1.0, turnoverBetween(prev, next), 1e-12)
	assert.Equal(t, 0.0, turnoverBetween(nil, nil))
}

func TestComputeMetrics_FlatCurve(t *testing.T) {
	r := &Result{
		InitialEquity: 1.0,
		FinalEquity:   1.0,
		EquityCurve: []EquityPoint{
			{Equity: 1.0}, {Equity: 1.0}, {Equity: 1.0},
		},
	}
	computeMetrics(r, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 0.0, r.TotalReturn)
	assert.Equal(t, 0.0, r.Sharpe)
	assert.Equal(t, 0.0, r.MaxDrawdown)
	assert.InDelta(t, 0.0, r.CAGR, 1e-9)
}
