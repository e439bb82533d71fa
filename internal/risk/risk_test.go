package risk

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoricalVaR(t *testing.T) {
	// 100 returns: -10%..-1% tail then 90 small gains.
	returns := make([]float64, 100)
	for i := 0; i < 10; i++ {
		returns[i] = -0.01 * float64(10-i)
	}
	for i := 10; i < 100; i++ {
		returns[i] = 0.001
	}

	res := HistoricalVaR(returns, 0.95)
	// 5th percentile of the sorted series is the -5% return.
	assert.InDelta(t, 0.05, res.VaR, 1e-12)
	// Tail average of {-10%..-5%}.
	assert.InDelta(t, 0.075, res.CVaR, 1e-12)
}

func TestHistoricalVaR_NoLosses(t *testing.T) {
	returns := []float64{0.01, 0.02, 0.03, 0.04}
	res := HistoricalVaR(returns, 0.95)
	assert.Equal(t, 0.0, res.VaR)
	assert.Equal(t, 0.0, res.CVaR)
}

func TestHistoricalVaR_Empty(t *testing.T) {
	res := HistoricalVaR(nil, 0.95)
	assert.Equal(t, 0.0, res.VaR)
}

func TestParametricVaR(t *testing.T) {
	res := ParametricVaR(0.02, 0.95)
	assert.InDelta(t, 1.645*0.02, res.VaR, 1e-9)
	assert.Greater(t, res.CVaR, res.VaR)
}

func TestNormInv(t *testing.T) {
	assert.InDelta(t, 1.645, NormInv(0.95), 1e-3)
	assert.InDelta(t, 2.326, NormInv(0.99), 1e-3)
	assert.InDelta(t, 0.0, NormInv(0.5), 1e-9)
	assert.InDelta(t, -NormInv(0.8), NormInv(0.2), 1e-6)
	assert.Equal(t, 0.0, NormInv(0))
	assert.Equal(t, 0.0, NormInv(1))
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, Percentile(sorted, 0))
	assert.Equal(t, 5.0, Percentile(sorted, 100))
	assert.Equal(t, 3.0, Percentile(sorted, 50))
	assert.InDelta(t, 2.0, Percentile(sorted, 25), 1e-12)
}

func TestSimulate_Reproducible(t *testing.T) {
	assets := []Asset{
		{Symbol: "AAA", Mu: 0.0005, Sigma: 0.02, Weight: 0.6},
		{Symbol: "BBB", Mu: 0.0003, Sigma: 0.015, Weight: -0.4},
	}
	corr := [][]float64{
		{1, 0.5},
		{0.5, 1},
	}
	cfg := MonteCarloConfig{NumSimulations: 2000, HorizonDays: 10, Seed: 42}

	r1, err := NewMonteCarloSimulator(cfg).Simulate(context.Background(), assets, corr)
	require.NoError(t, err)
	r2, err := NewMonteCarloSimulator(cfg).Simulate(context.Background(), assets, corr)
	require.NoError(t, err)

	assert.Equal(t, r1.MeanReturn, r2.MeanReturn)
	assert.Equal(t, r1.VaR95, r2.VaR95)
	assert.NotEqual(t, r1.RunID, r2.RunID)
}

func TestSimulate_DistributionShape(t *testing.T) {
	assets := []Asset{
		{Symbol: "AAA", Mu: 0, Sigma: 0.01, Weight: 1.0},
	}
	corr := [][]float64{{1}}
	cfg := MonteCarloConfig{NumSimulations: 5000, HorizonDays: 5, Seed: 7}

	res, err := NewMonteCarloSimulator(cfg).Simulate(context.Background(), assets, corr)
	require.NoError(t, err)

	// Zero drift: mean near zero, roughly half the paths lose.
	assert.InDelta(t, 0.0, res.MeanReturn, 0.002)
	assert.InDelta(t, 0.5, res.ProbLoss, 0.05)
	assert.Greater(t, res.VaR99, res.VaR95)
	assert.GreaterOrEqual(t, res.CVaR95, res.VaR95)

	// Daily sigma 1% over 5 days is about 2.24% horizon vol.
	assert.InDelta(t, 0.01*math.Sqrt(5), res.StdDev, 0.003)
}

func TestSimulate_InputValidation(t *testing.T) {
	cfg := MonteCarloConfig{NumSimulations: 10, HorizonDays: 1, Seed: 1}
	mc := NewMonteCarloSimulator(cfg)

	_, err := mc.Simulate(context.Background(), nil, nil)
	assert.Error(t, err)

	_, err = mc.Simulate(context.Background(), []Asset{{Symbol: "A", Weight: 1}}, [][]float64{{1}, {1}})
	assert.Error(t, err)
}

func TestSimulate_NonPSDCorrFallsBack(t *testing.T) {
	assets := []Asset{
		{Symbol: "A", Mu: 0, Sigma: 0.01, Weight: 0.5},
		{Symbol: "B", Mu: 0, Sigma: 0.01, Weight: 0.5},
	}
	// Off-diagonal beyond 1 is not a valid correlation matrix.
	corr := [][]float64{
		{1, 1.5},
		{1.5, 1},
	}
	cfg := MonteCarloConfig{NumSimulations: 100, HorizonDays: 2, Seed: 3}

	res, err := NewMonteCarloSimulator(cfg).Simulate(context.Background(), assets, corr)
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestSimulateSeries(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.005, 0.015, -0.01}
	cfg := MonteCarloConfig{NumSimulations: 1000, HorizonDays: 10, Seed: 11}

	res, err := NewMonteCarloSimulator(cfg).SimulateSeries(context.Background(), returns)
	require.NoError(t, err)
	assert.Len(t, res.Percentiles, 9)
	assert.LessOrEqual(t, res.Percentiles[5], res.Percentiles[95])
}

func TestEstimateAssets(t *testing.T) {
	history := map[string][]float64{
		"AAA": {0.01, 0.02, -0.01, 0.03},
		"BBB": {0.005},
	}
	weights := map[string]float64{"AAA": 0.7, "BBB": 0.3, "CCC": 0.1}

	assets := EstimateAssets(history, weights)
	require.Len(t, assets, 1)
	assert.Equal(t, "AAA", assets[0].Symbol)
	assert.InDelta(t, 0.0125, assets[0].Mu, 1e-12)
	assert.Equal(t, 0.7, assets[0].Weight)
}
