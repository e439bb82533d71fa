package engine

import (
	"github.com/apexquant/topoarb/internal/contracts"
	"github.com/apexquant/topoarb/internal/spatial"
	"github.com/apexquant/topoarb/internal/strategy"
)

// State is everything the engine carries between steps: the portfolio,
// the residual z-score history, the smoothed residuals and the previous
// equilibrium used as the solver fallback. It is an explicit value so a
// run can be replayed deterministically and scenarios can branch by
// cloning.
type State struct {
	Portfolio contracts.PortfolioState
	History   *spatial.ResidualHistory
	PrevEq    map[string]float64
	EMA       map[string]float64
	Step      int
}

// NewState returns a fresh engine state with the given starting equity.
func NewState(cfg *strategy.Config, equity float64) State {
	return State{
		Portfolio: contracts.NewPortfolioState(equity),
		History:   spatial.NewResidualHistory(cfg.Signal.ZScoreWindow, cfg.Signal.ZScoreMinObs),
		PrevEq:    make(map[string]float64),
		EMA:       make(map[string]float64),
	}
}

// Clone deep-copies the state for branching scenario evaluation.
func (s State) Clone() State {
	out := s
	out.Portfolio = s.Portfolio.Clone()
	out.History = s.History.Clone()
	out.PrevEq = make(map[string]float64, len(s.PrevEq))
	for k, v := range s.PrevEq {
		out.PrevEq[k] = v
	}
	out.EMA = make(map[string]float64, len(s.EMA))
	for k, v := range s.EMA {
		out.EMA[k] = v
	}
	return out
}
