// Package spatial builds the correlation graph Laplacian and solves the
// diffusion equilibrium (I + alpha*L) x_eq = x_obs. Residuals of observed
// state against equilibrium are the engine's mean-reversion signal.
package spatial

import "fmt"

// WeightRule selects how correlations map to non-negative edge weights.
// The rule changes graph connectivity, so it is fixed per strategy config
// rather than inferred.
type WeightRule string

const (
	// WeightThreshold keeps corr_ij as the weight when corr_ij >= threshold
	// and drops the edge otherwise. Default rule.
	WeightThreshold WeightRule = "threshold"

	// WeightRescale maps corr_ij into [0, 1] via (corr_ij + 1) / 2, keeping
	// every edge with a positive weight.
	WeightRescale WeightRule = "rescale"
)

// Graph holds the weight matrix and its combinatorial Laplacian L = D - W.
// Invariants: W is symmetric with zero diagonal, every row of L sums to 0,
// L is symmetric positive-semidefinite.
type Graph struct {
	N int
	W [][]float64
	L [][]float64
}

// BuildGraph constructs the weighted graph from a correlation matrix.
// threshold only applies under WeightThreshold.
func BuildGraph(corr [][]float64, rule WeightRule, threshold float64) (*Graph, error) {
	n := len(corr)
	if n == 0 {
		return nil, fmt.Errorf("empty correlation matrix")
	}
	for i, row := range corr {
		if len(row) != n {
			return nil, fmt.Errorf("correlation matrix row %d has %d entries, want %d", i, len(row), n)
		}
	}

	g := &Graph{
		N: n,
		W: make([][]float64, n),
		L: make([][]float64, n),
	}
	for i := range g.W {
		g.W[i] = make([]float64, n)
		g.L[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var w float64
			switch rule {
			case WeightRescale:
				w = (corr[i][j] + 1) / 2
			case WeightThreshold, "":
				if corr[i][j] >= threshold {
					w = corr[i][j]
				}
			default:
				return nil, fmt.Errorf("unknown weight rule %q", rule)
			}
			if w < 0 {
				w = 0
			}
			g.W[i][j] = w
			g.W[j][i] = w
		}
	}

	for i := 0; i < n; i++ {
		degree := 0.0
		for j := 0; j < n; j++ {
			degree += g.W[i][j]
			g.L[i][j] = -g.W[i][j]
		}
		g.L[i][i] = degree
	}

	return g, nil
}
