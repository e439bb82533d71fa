// Package decision turns residual z-scores and the regime label into
// sized target positions under the active risk configuration. Evaluate is
// a pure function of the previous portfolio state and the step inputs, so
// the same sequence of steps always replays to the same positions.
package decision

import (
	"github.com/apexquant/topoarb/internal/contracts"
)

// Config is the risk-relevant parameter bundle, validated fail-closed by
// the strategy loader before an engine is built.
type Config struct {
	// EntryThreshold is the |z| at which a FLAT asset enters. The boundary
	// is inclusive: z exactly at the threshold enters.
	EntryThreshold float64

	// StopLossPct closes a position once its unrealized loss reaches this
	// fraction of the entry price.
	StopLossPct float64

	// MaxDrawdownPct halts new entries once portfolio drawdown from the
	// high-water mark exceeds it. RecoveryPct is the drawdown level the
	// portfolio must come back under before entries resume.
	MaxDrawdownPct float64
	RecoveryPct    float64

	// Leverage scales gross exposure. NetExposure in [0, 1] tilts the
	// long/short sleeve split: 0 is dollar-neutral, 1 fully long-biased.
	Leverage    float64
	NetExposure float64

	// Multipliers maps each regime label to a gross-exposure scale with
	// m(CHAOTIC) <= m(TRANSITIONAL) <= m(STABLE).
	Multipliers map[contracts.RegimeLabel]float64
}

// StepInput is one step's view of the market for the decision engine.
// Equity is the marked-to-market portfolio value supplied by the
// orchestrator that consumed the previous step's positions.
type StepInput struct {
	Step    int
	Symbols []string
	Prices  map[string]float64
	ZScores map[string]float64
	Regime  contracts.RegimeLabel
	Equity  float64
}

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitStopLoss  ExitReason = "STOP_LOSS"
	ExitZeroCross ExitReason = "ZERO_CROSS"
)

// ClosedPosition is a position exit emitted by a step.
type ClosedPosition struct {
	Position  contracts.Position `json:"position"`
	ExitPrice float64            `json:"exit_price"`
	Reason    ExitReason         `json:"reason"`
	Return    float64            `json:"return"` // signed, before costs
}

// StepOutput is the decision engine's result for one step: the full
// target position set inside State plus the step's transitions.
type StepOutput struct {
	State  contracts.PortfolioState `json:"state"`
	Opened []contracts.Position     `json:"opened"`
	Closed []ClosedPosition         `json:"closed"`
	Halted bool                     `json:"halted"` // entered DRAWDOWN_HALT this step
}

// Engine applies the transition rules. Stateless; all carried state lives
// in the PortfolioState value.
type Engine struct {
	cfg Config
}

// New builds a decision engine from a validated config.
func New(cfg Config) Engine {
	return Engine{cfg: cfg}
}

// Evaluate runs one step. Rule order: halt check, exits, entries, sizing,
// net-exposure tilt, drawdown check. Transitions apply atomically: the
// input state is never mutated and the output state is fully updated.
func (e Engine) Evaluate(prev contracts.PortfolioState, in StepInput) StepOutput {
	state := prev.Clone()
	state.Step = in.Step

	// Halt status is read from the incoming state, so a halt triggered on
	// step k blocks entries from step k+1 onward.
	halted := state.Status == contracts.StatusDrawdownHalt

	out := StepOutput{}

	for _, sym := range sortedSymbols(state.Positions) {
		pos := state.Positions[sym]
		price, hasPrice := in.Prices[sym]

		// Stop-loss exits are always allowed, halted or not.
		if hasPrice && pos.UnrealizedReturn(price) <= -e.cfg.StopLossPct {
			delete(state.Positions, sym)
			out.Closed = append(out.Closed, ClosedPosition{
				Position:  pos,
				ExitPrice: price,
				Reason:    ExitStopLoss,
				Return:    pos.UnrealizedReturn(price),
			})
			continue
		}

		// Mean reversion completed: the residual crossed through zero.
		z, hasZ := in.ZScores[sym]
		if hasZ && zeroCrossed(pos.Side, z) {
			exitPrice := pos.EntryPrice
			ret := 0.0
			if hasPrice {
				exitPrice = price
				ret = pos.UnrealizedReturn(price)
			}
			delete(state.Positions, sym)
			out.Closed = append(out.Closed, ClosedPosition{
				Position:  pos,
				ExitPrice: exitPrice,
				Reason:    ExitZeroCross,
				Return:    ret,
			})
		}
		// Assets missing from this step's universe carry unchanged.
	}

	if !halted {
		for _, sym := range in.Symbols {
			if _, open := state.Positions[sym]; open {
				continue
			}
			z, ok := in.ZScores[sym]
			if !ok {
				continue
			}

			var side contracts.Side
			switch {
			case z <= -e.cfg.EntryThreshold:
				side = contracts.SideLong
			case z >= e.cfg.EntryThreshold:
				side = contracts.SideShort
			default:
				continue
			}

			pos := contracts.Position{
				Symbol:     sym,
				Side:       side,
				EntryPrice: in.Prices[sym],
				EntryStep:  in.Step,
			}
			state.Positions[sym] = pos
			out.Opened = append(out.Opened, pos)
		}
	}

	e.applySizing(&state, in.Regime)

	// Re-read newly opened positions so the emitted entries carry their
	// final sizes.
	for i, p := range out.Opened {
		out.Opened[i] = state.Positions[p.Symbol]
	}

	state.Equity = in.Equity
	if state.Equity > state.HighWaterMark {
		state.HighWaterMark = state.Equity
	}

	dd := state.Drawdown()
	switch state.Status {
	case contracts.StatusNormal:
		if dd > e.cfg.MaxDrawdownPct {
			state.Status = contracts.StatusDrawdownHalt
			out.Halted = true
		}
	case contracts.StatusDrawdownHalt:
		if dd <= e.cfg.RecoveryPct {
			state.Status = contracts.StatusNormal
		}
	}

	out.State = state
	return out
}

// zeroCrossed reports whether the residual signal has reverted through
// zero for the position's side. Equality counts as crossed.
func zeroCrossed(side contracts.Side, z float64) bool {
	switch side {
	case contracts.SideLong:
		return z >= 0
	case contracts.SideShort:
		return z <= 0
	default:
		return false
	}
}
