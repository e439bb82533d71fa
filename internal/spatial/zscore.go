package spatial

import "math"

// ResidualHistory keeps a bounded rolling window of past residuals per
// asset and standardizes new residuals against it. Owned by the engine
// and carried step to step; not safe for concurrent use.
type ResidualHistory struct {
	window  int
	minObs  int
	history map[string][]float64
}

// NewResidualHistory creates a history with the given rolling window.
// minObs residuals must accumulate before z-scores become non-zero, which
// keeps early steps from trading on a degenerate standard deviation.
func NewResidualHistory(window, minObs int) *ResidualHistory {
	if window < 2 {
		window = 2
	}
	if minObs < 2 {
		minObs = 2
	}
	return &ResidualHistory{
		window:  window,
		minObs:  minObs,
		history: make(map[string][]float64),
	}
}

// Observe records a residual and returns its z-score against the history
// accumulated before this observation. Returns 0 while the history is too
// short or its standard deviation is 0.
func (h *ResidualHistory) Observe(symbol string, residual float64) float64 {
	past := h.history[symbol]
	z := 0.0
	if len(past) >= h.minObs {
		mu := meanOf(past)
		sd := stddevOf(past, mu)
		if sd > 0 {
			z = (residual - mu) / sd
		}
	}

	past = append(past, residual)
	if len(past) > h.window {
		past = past[len(past)-h.window:]
	}
	h.history[symbol] = past
	return z
}

// Len reports how many residuals are stored for a symbol.
func (h *ResidualHistory) Len(symbol string) int {
	return len(h.history[symbol])
}

// Clone deep-copies the history, for deterministic scenario replay.
func (h *ResidualHistory) Clone() *ResidualHistory {
	out := NewResidualHistory(h.window, h.minObs)
	for k, v := range h.history {
		cp := make([]float64, len(v))
		copy(cp, v)
		out.history[k] = cp
	}
	return out
}

func meanOf(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddevOf(xs []float64, mu float64) float64 {
	sum := 0.0
	for _, x := range xs {
		d := x - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
