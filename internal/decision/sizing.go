package decision

import (
	"sort"

	"github.com/apexquant/topoarb/internal/contracts"
)

// applySizing recomputes every open position's size from the sleeve
// budgets. Gross budget = leverage * regime multiplier; the long sleeve
// gets (1+NE)/2 of it and the short sleeve (1-NE)/2, each split evenly
// across that side's open positions. The tilt rescales sleeves, it never
// drops a signal.
func (e Engine) applySizing(state *contracts.PortfolioState, regime contracts.RegimeLabel) {
	m, ok := e.cfg.Multipliers[regime]
	if !ok {
		m = e.cfg.Multipliers[contracts.RegimeChaotic]
	}

	longs, shorts := state.OpenCount()
	budget := e.cfg.Leverage * m
	longSleeve := budget * (1 + e.cfg.NetExposure) / 2
	shortSleeve := budget * (1 - e.cfg.NetExposure) / 2

	for sym, pos := range state.Positions {
		switch pos.Side {
		case contracts.SideLong:
			pos.Size = longSleeve / float64(longs)
		case contracts.SideShort:
			pos.Size = shortSleeve / float64(shorts)
		}
		state.Positions[sym] = pos
	}
}

// sortedSymbols returns map keys in deterministic order so step
// evaluation replays identically.
func sortedSymbols(positions map[string]contracts.Position) []string {
	out := make([]string, 0, len(positions))
	for sym := range positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
