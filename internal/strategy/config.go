// Package strategy loads and validates the strategy YAML. The file is the
// single source of truth for every signal and risk parameter; unknown
// fields fail the load and risk fields are never defaulted.
package strategy

import (
	"github.com/apexquant/topoarb/internal/contracts"
	"github.com/apexquant/topoarb/internal/decision"
	"github.com/apexquant/topoarb/internal/spatial"
)

// Config mirrors the strategy YAML.
type Config struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Universe Universe `yaml:"universe" json:"universe"`
	Signal   Signal   `yaml:"signal" json:"signal"`
	Regime   Regime   `yaml:"regime" json:"regime"`
	Risk     Risk     `yaml:"risk" json:"risk"`
	Backtest Backtest `yaml:"backtest" json:"backtest"`
}

type Meta struct {
	StrategyID  string `yaml:"strategy_id" json:"strategy_id"`
	Version     int    `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
}

type Universe struct {
	Symbols      []string `yaml:"symbols" json:"symbols"`
	Sector       string   `yaml:"sector" json:"sector"` // GICS sector filter, optional
	LookbackDays int      `yaml:"lookback_days" json:"lookback_days"`
	MinSamples   int      `yaml:"min_samples" json:"min_samples"`
	MaxGapDays   int      `yaml:"max_gap_days" json:"max_gap_days"`
}

type Signal struct {
	Alpha                float64 `yaml:"alpha" json:"alpha"`
	WeightRule           string  `yaml:"weight_rule" json:"weight_rule"` // threshold | rescale
	CorrelationThreshold float64 `yaml:"correlation_threshold" json:"correlation_threshold"`
	EntryZThreshold      float64 `yaml:"entry_z_threshold" json:"entry_z_threshold"`
	ZScoreWindow         int     `yaml:"zscore_window" json:"zscore_window"`
	ZScoreMinObs         int     `yaml:"zscore_min_obs" json:"zscore_min_obs"`
	ResidualEMA          float64 `yaml:"residual_ema" json:"residual_ema"` // weight of the new residual
	ChaoticAlphaScale    float64 `yaml:"chaotic_alpha_scale" json:"chaotic_alpha_scale"`
}

type Regime struct {
	EntropyLow  float64     `yaml:"entropy_low" json:"entropy_low"`
	EntropyHigh float64     `yaml:"entropy_high" json:"entropy_high"`
	Multipliers Multipliers `yaml:"multipliers" json:"multipliers"`
}

type Multipliers struct {
	Stable       float64 `yaml:"stable" json:"stable"`
	Transitional float64 `yaml:"transitional" json:"transitional"`
	Chaotic      float64 `yaml:"chaotic" json:"chaotic"`
}

// Risk holds the risk-relevant bundle. Profile optionally names one of
// the built-in profiles; when set it supplies every field below and the
// explicit fields must be left zero.
type Risk struct {
	Profile        string  `yaml:"profile" json:"profile"`
	StopLossPct    float64 `yaml:"stop_loss_pct" json:"stop_loss_pct"`
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	RecoveryPct    float64 `yaml:"recovery_pct" json:"recovery_pct"`
	Leverage       float64 `yaml:"leverage" json:"leverage"`
	NetExposure    float64 `yaml:"net_exposure" json:"net_exposure"`
}

type Backtest struct {
	RebalanceEvery     int     `yaml:"rebalance_every" json:"rebalance_every"`
	TransactionCostBps float64 `yaml:"transaction_cost_bps" json:"transaction_cost_bps"`
	InitialEquity      float64 `yaml:"initial_equity" json:"initial_equity"`
}

// WeightRule maps the YAML value onto the spatial module's rule type.
func (c *Config) WeightRule() spatial.WeightRule {
	return spatial.WeightRule(c.Signal.WeightRule)
}

// EffectiveAlpha scales the diffusion coefficient down under CHAOTIC,
// reflecting lower confidence in the graph equilibrium when the topology
// is unstable.
func (c *Config) EffectiveAlpha(regime contracts.RegimeLabel) float64 {
	if regime == contracts.RegimeChaotic {
		return c.Signal.Alpha * c.Signal.ChaoticAlphaScale
	}
	return c.Signal.Alpha
}

// DecisionConfig builds the decision engine's parameter set.
func (c *Config) DecisionConfig() decision.Config {
	return decision.Config{
		EntryThreshold: c.Signal.EntryZThreshold,
		StopLossPct:    c.Risk.StopLossPct,
		MaxDrawdownPct: c.Risk.MaxDrawdownPct,
		RecoveryPct:    c.Risk.RecoveryPct,
		Leverage:       c.Risk.Leverage,
		NetExposure:    c.Risk.NetExposure,
		Multipliers: map[contracts.RegimeLabel]float64{
			contracts.RegimeStable:       c.Regime.Multipliers.Stable,
			contracts.RegimeTransitional: c.Regime.Multipliers.Transitional,
			contracts.RegimeChaotic:      c.Regime.Multipliers.Chaotic,
		},
	}
}
