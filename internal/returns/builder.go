// Package returns turns a window of per-asset price samples into a log
// returns matrix and a Pearson correlation matrix. It is the shared input
// stage for the spatial and topology modules.
package returns

import (
	"fmt"
	"math"

	"github.com/apexquant/topoarb/internal/contracts"
)

// Window is one evaluation step's immutable price snapshot:
// N assets, each with L samples, oldest first. Gaps are marked NaN by the
// data provider, never silently zero-filled.
type Window struct {
	Symbols []string
	Prices  [][]float64 // [asset][sample]
}

// Exclusion records an asset dropped from the step universe and why.
type Exclusion struct {
	Symbol string
	Reason error
}

// Result holds the step's retained universe, its log returns and the
// pairwise correlation matrix. Symbols keeps the window's original order.
type Result struct {
	Symbols  []string
	Returns  [][]float64 // [asset][L-1]
	Corr     [][]float64 // N×N, unit diagonal
	Excluded []Exclusion
}

// Builder converts windows into correlation inputs. Pure: Build has no
// side effects and never mutates the window.
type Builder struct {
	// MinSamples is the minimum number of valid (non-gap) samples an asset
	// needs to stay in the step universe.
	MinSamples int

	// MaxGap is the longest run of consecutive gaps that forward-fill will
	// bridge. A longer run, or a leading gap, excludes the asset.
	MaxGap int
}

// Build produces the returns and correlation matrices for one window.
// Assets with unusable data are excluded, not zero-filled; if fewer than
// two assets survive, or the window is shorter than two samples, the step
// cannot be evaluated and contracts.ErrInsufficientData is returned.
func (b Builder) Build(w Window) (*Result, error) {
	if len(w.Symbols) != len(w.Prices) {
		return nil, fmt.Errorf("window has %d symbols but %d price series", len(w.Symbols), len(w.Prices))
	}
	if len(w.Symbols) == 0 || sampleLen(w) < 2 {
		return nil, fmt.Errorf("window too short: %w", contracts.ErrInsufficientData)
	}

	res := &Result{}

	var filled [][]float64
	for i, sym := range w.Symbols {
		series, err := b.fillGaps(w.Prices[i])
		if err != nil {
			res.Excluded = append(res.Excluded, Exclusion{Symbol: sym, Reason: err})
			continue
		}
		res.Symbols = append(res.Symbols, sym)
		filled = append(filled, series)
	}

	var keep []string
	var keptRets [][]float64
	for i, series := range filled {
		r := logReturns(series)
		if isZeroVariance(r) {
			res.Excluded = append(res.Excluded, Exclusion{
				Symbol: res.Symbols[i],
				Reason: contracts.ErrDegenerateCorrelation,
			})
			continue
		}
		keep = append(keep, res.Symbols[i])
		keptRets = append(keptRets, r)
	}
	res.Symbols = keep
	res.Returns = keptRets

	if len(res.Symbols) < 2 {
		return nil, fmt.Errorf("only %d usable assets: %w", len(res.Symbols), contracts.ErrInsufficientData)
	}

	res.Corr = correlationMatrix(res.Returns)
	return res, nil
}

func sampleLen(w Window) int {
	n := 0
	for _, p := range w.Prices {
		if len(p) > n {
			n = len(p)
		}
	}
	return n
}

// fillGaps forward-fills NaN runs of length <= MaxGap and validates the
// per-asset sample budget. Returns a fresh slice.
func (b Builder) fillGaps(prices []float64) ([]float64, error) {
	out := make([]float64, len(prices))
	valid := 0
	gapRun := 0
	last := math.NaN()

	for i, p := range prices {
		if math.IsNaN(p) || p <= 0 {
			gapRun++
			if math.IsNaN(last) {
				return nil, fmt.Errorf("leading gap at sample %d: %w", i, contracts.ErrInsufficientData)
			}
			if gapRun > b.MaxGap {
				return nil, fmt.Errorf("gap run of %d samples exceeds limit %d: %w", gapRun, b.MaxGap, contracts.ErrInsufficientData)
			}
			out[i] = last
			continue
		}
		gapRun = 0
		valid++
		last = p
		out[i] = p
	}

	if valid < b.MinSamples {
		return nil, fmt.Errorf("%d valid samples, need %d: %w", valid, b.MinSamples, contracts.ErrInsufficientData)
	}
	return out, nil
}

// logReturns computes ln(p_t / p_{t-1}) over a gap-free series.
func logReturns(prices []float64) []float64 {
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return out
}

func isZeroVariance(rets []float64) bool {
	if len(rets) == 0 {
		return true
	}
	first := rets[0]
	for _, r := range rets[1:] {
		if r != first {
			return false
		}
	}
	return true
}

// correlationMatrix computes the Pearson correlation of the retained
// return series. Values are clamped into [-1, 1] against floating-point
// drift; the diagonal is exactly 1.
func correlationMatrix(rets [][]float64) [][]float64 {
	n := len(rets)
	means := make([]float64, n)
	stds := make([]float64, n)
	for i, r := range rets {
		means[i] = mean(r)
		stds[i] = stddev(r, means[i])
	}

	corr := make([][]float64, n)
	for i := range corr {
		corr[i] = make([]float64, n)
		corr[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := covariance(rets[i], rets[j], means[i], means[j]) / (stds[i] * stds[j])
			if c > 1 {
				c = 1
			} else if c < -1 {
				c = -1
			}
			corr[i][j] = c
			corr[j][i] = c
		}
	}
	return corr
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, mu float64) float64 {
	sum := 0.0
	for _, x := range xs {
		d := x - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func covariance(xs, ys []float64, muX, muY float64) float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += (xs[i] - muX) * (ys[i] - muY)
	}
	return sum / float64(n)
}
