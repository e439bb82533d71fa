package spatial

import (
	"fmt"
	"math"

	"github.com/apexquant/topoarb/internal/contracts"
)

// jitter retry schedule for a Cholesky factorization that stalls on
// numerically borderline matrices. (I + alpha*L) is SPD in exact
// arithmetic for alpha >= 0, so the first attempt normally succeeds.
var jitterSchedule = []float64{0, 1e-10, 1e-8, 1e-6}

// Equilibrium solves (I + alpha*L) x_eq = x_obs with a dense Cholesky
// factorization. alpha = 0 returns x_obs unchanged (no smoothing). Returns
// contracts.ErrSolverFailure when factorization fails on every jitter
// retry; the caller falls back to the previous step's equilibrium.
func Equilibrium(g *Graph, alpha float64, xObs []float64) ([]float64, error) {
	if alpha < 0 {
		return nil, fmt.Errorf("alpha must be >= 0, got %v", alpha)
	}
	if len(xObs) != g.N {
		return nil, fmt.Errorf("observation vector has %d entries, graph has %d nodes", len(xObs), g.N)
	}

	if alpha == 0 {
		out := make([]float64, g.N)
		copy(out, xObs)
		return out, nil
	}

	n := g.N
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			a[i][j] = alpha * g.L[i][j]
		}
		a[i][i] += 1
	}

	for _, jit := range jitterSchedule {
		if jit > 0 {
			for i := 0; i < n; i++ {
				a[i][i] += jit
			}
		}
		chol, ok := choleskyFactor(a)
		if !ok {
			continue
		}
		return choleskySolve(chol, xObs), nil
	}

	return nil, fmt.Errorf("cholesky factorization failed for alpha=%v: %w", alpha, contracts.ErrSolverFailure)
}

// Residuals is observed minus equilibrium, per asset.
func Residuals(xObs, xEq []float64) []float64 {
	out := make([]float64, len(xObs))
	for i := range xObs {
		out[i] = xObs[i] - xEq[i]
	}
	return out
}

// choleskyFactor computes the lower-triangular factor of an SPD matrix.
// Returns ok=false when a pivot is non-positive or non-finite.
func choleskyFactor(a [][]float64) ([][]float64, bool) {
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
				if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
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

// choleskySolve solves L L^T x = b by forward then backward substitution.
func choleskySolve(l [][]float64, b []float64) []float64 {
	n := len(l)

	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= l[i][k] * y[k]
		}
		y[i] = sum / l[i][i]
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < n; k++ {
			sum -= l[k][i] * x[k]
		}
		x[i] = sum / l[i][i]
	}
	return x
}
