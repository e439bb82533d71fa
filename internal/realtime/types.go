// Package realtime fans evaluation results out to API consumers. The
// hub keeps the latest snapshot and a bounded equity history, and
// streams new snapshots to websocket subscribers.
package realtime

import (
	"time"

	"github.com/apexquant/topoarb/internal/contracts"
	"github.com/apexquant/topoarb/internal/engine"
)

// PositionView is the wire form of one open position.
type PositionView struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Size       float64 `json:"size"`
	EntryPrice float64 `json:"entry_price"`
	EntryStep  int     `json:"entry_step"`
}

// StepSnapshot is the wire form of one evaluation step.
type StepSnapshot struct {
	Timestamp time.Time          `json:"timestamp"`
	Step      int                `json:"step"`
	Regime    string             `json:"regime"`
	Entropy   float64            `json:"entropy"`
	Alpha     float64            `json:"alpha"`
	Equity    float64            `json:"equity"`
	Drawdown  float64            `json:"drawdown"`
	Status    string             `json:"status"`
	Skipped   bool               `json:"skipped"`
	Degraded  bool               `json:"degraded"`
	ZScores   map[string]float64 `json:"z_scores,omitempty"`
	Positions []PositionView     `json:"positions"`
	Opened    []string           `json:"opened,omitempty"`
	Closed    []string           `json:"closed,omitempty"`
	Excluded  []string           `json:"excluded,omitempty"`
}

// EquityTick is one point of the live equity history.
type EquityTick struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
	Status    string    `json:"status"`
}

// NewStepSnapshot flattens a step result and the resulting portfolio
// into the wire form.
func NewStepSnapshot(res *engine.StepResult, port *contracts.PortfolioState, at time.Time) *StepSnapshot {
	snap := &StepSnapshot{
		Timestamp: at,
		Step:      res.Step,
		Regime:    string(res.Regime),
		Alpha:     res.Alpha,
		Equity:    port.Equity,
		Drawdown:  port.Drawdown(),
		Status:    string(port.Status),
		Skipped:   res.Skipped,
		Degraded:  res.Degraded,
		Positions: []PositionView{},
	}

	if res.Topology != nil {
		snap.Entropy = res.Topology.Entropy
	}
	if len(res.ZScores) > 0 {
		snap.ZScores = make(map[string]float64, len(res.ZScores))
		for sym, z := range res.ZScores {
			snap.ZScores[sym] = z
		}
	}
	for _, pos := range port.Positions {
		snap.Positions = append(snap.Positions, PositionView{
			Symbol:     pos.Symbol,
			Side:       string(pos.Side),
			Size:       pos.Size,
			EntryPrice: pos.EntryPrice,
			EntryStep:  pos.EntryStep,
		})
	}
	for _, p := range res.Decision.Opened {
		snap.Opened = append(snap.Opened, p.Symbol)
	}
	for _, c := range res.Decision.Closed {
		snap.Closed = append(snap.Closed, c.Position.Symbol)
	}
	for _, ex := range res.Excluded {
		snap.Excluded = append(snap.Excluded, ex.Symbol)
	}
	return snap
}
