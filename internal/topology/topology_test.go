package topology

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexquant/topoarb/internal/contracts"
)

func TestDistanceMatrix(t *testing.T) {
	corr := [][]float64{
		{1, 1, 0, -1},
		{1, 1, 0, 0},
		{0, 0, 1, 0},
		{-1, 0, 0, 1},
	}

	d := DistanceMatrix(corr)

	assert.Equal(t, 0.0, d[0][0])
	assert.Equal(t, 0.0, d[0][1])
	assert.InDelta(t, math.Sqrt2, d[0][2], 1e-12)
	assert.InDelta(t, 2.0, d[0][3], 1e-12)
	assert.Equal(t, d[2][0], d[0][2])
}

func TestDistanceMatrix_ClipsAtZero(t *testing.T) {
	// Correlation marginally above 1 from floating-point drift must not
	// produce NaN distances.
	corr := [][]float64{
		{1, 1 + 1e-15},
		{1 + 1e-15, 1},
	}
	d := DistanceMatrix(corr)
	assert.False(t, math.IsNaN(d[0][1]))
	assert.Equal(t, 0.0, d[0][1])
}

func TestRipsDiagram_ComponentMerges(t *testing.T) {
	dist := [][]float64{
		{0, 1, 2},
		{1, 0, 3},
		{2, 3, 0},
	}

	diagram := RipsDiagram(dist)

	var h0Finite []float64
	infinite := 0
	for _, f := range diagram {
		if f.Dimension != 0 {
			continue
		}
		if f.IsFinite() {
			assert.Equal(t, 0.0, f.Birth)
			h0Finite = append(h0Finite, f.Death)
		} else {
			infinite++
		}
	}

	// Two merges (at 1 and 2) and exactly one surviving component.
	assert.ElementsMatch(t, []float64{1, 2}, h0Finite)
	assert.Equal(t, 1, infinite)
}

func TestRipsDiagram_SquareLoop(t *testing.T) {
	// Four points on a square: sides at 1, diagonals at 1.5. One loop is
	// born when the fourth side closes the cycle and dies when the first
	// triangle (via a diagonal) fills it.
	dist := [][]float64{
		{0, 1, 1.5, 1},
		{1, 0, 1, 1.5},
		{1.5, 1, 0, 1},
		{1, 1.5, 1, 0},
	}

	diagram := RipsDiagram(dist)
	s := SummarizeH1(diagram)

	assert.InDelta(t, 0.5, s.MaxPersistence, 1e-12)

	found := false
	for _, f := range diagram {
		if f.Dimension == 1 && f.Persistence() > 1e-12 {
			assert.InDelta(t, 1.0, f.Birth, 1e-12)
			assert.InDelta(t, 1.5, f.Death, 1e-12)
			found = true
		}
	}
	assert.True(t, found, "expected one persistent loop")
}

func TestRipsDiagram_BirthNeverExceedsDeath(t *testing.T) {
	dist := [][]float64{
		{0, 0.3, 1.2, 0.9, 0.5},
		{0.3, 0, 0.8, 1.4, 0.7},
		{1.2, 0.8, 0, 0.6, 1.1},
		{0.9, 1.4, 0.6, 0, 0.4},
		{0.5, 0.7, 1.1, 0.4, 0},
	}

	for _, f := range RipsDiagram(dist) {
		assert.LessOrEqual(t, f.Birth, f.Death)
	}
}

func TestPersistenceEntropy_DegenerateDiagrams(t *testing.T) {
	assert.Equal(t, 0.0, PersistenceEntropy(nil, -1))

	one := []contracts.PersistenceFeature{
		{Dimension: 0, Birth: 0, Death: 1},
	}
	assert.Equal(t, 0.0, PersistenceEntropy(one, -1))

	// Infinite features do not count.
	withInf := append(one, contracts.PersistenceFeature{Dimension: 0, Birth: 0, Death: math.Inf(1)})
	assert.Equal(t, 0.0, PersistenceEntropy(withInf, -1))
}

func TestPersistenceEntropy_UniformLifetimesIsOne(t *testing.T) {
	// Equal-weight chain: three merges all at distance 1.
	dist := [][]float64{
		{0, 1, 5, 5},
		{1, 0, 1, 5},
		{5, 1, 0, 1},
		{5, 5, 1, 0},
	}

	diagram := RipsDiagram(dist)
	assert.InDelta(t, 1.0, PersistenceEntropy(diagram, 0), 1e-12)
}

func TestPersistenceEntropy_SkewedLifetimes(t *testing.T) {
	dist := [][]float64{
		{0, 1, 2},
		{1, 0, 3},
		{2, 3, 0},
	}

	diagram := RipsDiagram(dist)
	e := PersistenceEntropy(diagram, 0)

	// Lifetimes {1, 2}: entropy below the uniform maximum.
	assert.Greater(t, e, 0.0)
	assert.Less(t, e, 1.0)
	want := -(1.0/3*math.Log(1.0/3) + 2.0/3*math.Log(2.0/3)) / math.Log(2)
	assert.InDelta(t, want, e, 1e-12)
}

func TestAnalyze_RegimeLabels(t *testing.T) {
	m := Module{LowCutoff: 0.3, HighCutoff: 0.7}

	assert.Equal(t, contracts.RegimeStable, m.label(0.1))
	assert.Equal(t, contracts.RegimeTransitional, m.label(0.3))
	assert.Equal(t, contracts.RegimeTransitional, m.label(0.5))
	assert.Equal(t, contracts.RegimeTransitional, m.label(0.7))
	assert.Equal(t, contracts.RegimeChaotic, m.label(0.9))
}

func TestAnalyze_PerfectlyCorrelatedUniverseIsStable(t *testing.T) {
	m := Module{LowCutoff: 0.3, HighCutoff: 0.7}

	corr := [][]float64{
		{1, 1, 1},
		{1, 1, 1},
		{1, 1, 1},
	}

	res, err := m.Analyze(corr)
	require.NoError(t, err)

	// Everything merges at distance 0: no positive lifetimes anywhere.
	assert.Equal(t, 0.0, res.Entropy)
	assert.Equal(t, contracts.RegimeStable, res.Regime)
}

func TestAnalyze_TooFewAssets(t *testing.T) {
	m := Module{LowCutoff: 0.3, HighCutoff: 0.7}
	_, err := m.Analyze([][]float64{{1}})
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestSummarizeH1(t *testing.T) {
	features := []contracts.PersistenceFeature{
		{Dimension: 1, Birth: 1, Death: 2},
		{Dimension: 1, Birth: 0.5, Death: 0.5},
		{Dimension: 1, Birth: 0, Death: math.Inf(1)},
		{Dimension: 0, Birth: 0, Death: 10},
	}

	s := SummarizeH1(features)
	assert.Equal(t, 2, s.LoopCount)
	assert.Equal(t, 1.0, s.MaxPersistence)
	assert.Equal(t, 1.0, s.TotalPersistence)
	assert.Equal(t, 0.5, s.MeanPersistence)
}
