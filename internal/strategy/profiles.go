package strategy

import "sort"

// Profiles are the built-in risk bundles, ordered from most aggressive to
// most conservative. Selecting one by name fills the Risk block wholesale
// so no risk field is ever partially defaulted.
var profiles = map[string]Risk{
	"HYPER_AGGRESSIVE": {StopLossPct: 0.15, MaxDrawdownPct: 0.40, RecoveryPct: 0.25, Leverage: 2.0, NetExposure: 0.9},
	"VERY_AGGRESSIVE":  {StopLossPct: 0.12, MaxDrawdownPct: 0.35, RecoveryPct: 0.22, Leverage: 1.8, NetExposure: 0.8},
	"AGGRESSIVE":       {StopLossPct: 0.10, MaxDrawdownPct: 0.30, RecoveryPct: 0.18, Leverage: 1.5, NetExposure: 0.7},
	"GROWTH":           {StopLossPct: 0.08, MaxDrawdownPct: 0.25, RecoveryPct: 0.15, Leverage: 1.3, NetExposure: 0.6},
	"STANDARD":         {StopLossPct: 0.07, MaxDrawdownPct: 0.20, RecoveryPct: 0.12, Leverage: 1.0, NetExposure: 0.5},
	"BALANCED":         {StopLossPct: 0.06, MaxDrawdownPct: 0.18, RecoveryPct: 0.10, Leverage: 1.0, NetExposure: 0.4},
	"CAUTIOUS":         {StopLossPct: 0.05, MaxDrawdownPct: 0.15, RecoveryPct: 0.08, Leverage: 0.8, NetExposure: 0.3},
	"DEFENSIVE":        {StopLossPct: 0.04, MaxDrawdownPct: 0.12, RecoveryPct: 0.07, Leverage: 0.7, NetExposure: 0.2},
	"CONSERVATIVE":     {StopLossPct: 0.03, MaxDrawdownPct: 0.10, RecoveryPct: 0.05, Leverage: 0.5, NetExposure: 0.1},
	"ULTRA_CONSERVATIVE": {StopLossPct: 0.02, MaxDrawdownPct: 0.08, RecoveryPct: 0.04, Leverage: 0.3, NetExposure: 0.0},
}

// Profile returns the named risk bundle.
func Profile(name string) (Risk, bool) {
	r, ok := profiles[name]
	return r, ok
}

// ProfileNames lists the built-in profiles in alphabetical order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
