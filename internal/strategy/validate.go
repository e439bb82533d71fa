package strategy

import (
	"fmt"
)

// ValidationError is a fatal configuration failure. Risk-relevant fields
// are never defaulted: a config that fails validation stops the program
// before any step runs.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every required constraint, fail-closed.
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Universe ===
	if len(cfg.Universe.Symbols) < 2 && cfg.Universe.Sector == "" {
		return ValidationError{"universe.symbols", "need at least 2 symbols or a sector filter"}
	}
	if cfg.Universe.LookbackDays < 2 {
		return ValidationError{"universe.lookback_days", "must be >= 2"}
	}
	if cfg.Universe.MinSamples < 2 || cfg.Universe.MinSamples > cfg.Universe.LookbackDays {
		return ValidationError{"universe.min_samples", "must be in [2, lookback_days]"}
	}
	if cfg.Universe.MaxGapDays < 0 {
		return ValidationError{"universe.max_gap_days", "must be >= 0"}
	}

	// === Signal ===
	if cfg.Signal.Alpha < 0 {
		return ValidationError{"signal.alpha", "must be >= 0"}
	}
	if cfg.Signal.WeightRule != "threshold" && cfg.Signal.WeightRule != "rescale" {
		return ValidationError{"signal.weight_rule", "must be threshold or rescale"}
	}
	if cfg.Signal.CorrelationThreshold < -1 || cfg.Signal.CorrelationThreshold > 1 {
		return ValidationError{"signal.correlation_threshold", "must be in [-1, 1]"}
	}
	if cfg.Signal.EntryZThreshold <= 0 {
		return ValidationError{"signal.entry_z_threshold", "must be > 0"}
	}
	if cfg.Signal.ZScoreWindow < 2 {
		return ValidationError{"signal.zscore_window", "must be >= 2"}
	}
	if cfg.Signal.ZScoreMinObs < 2 || cfg.Signal.ZScoreMinObs > cfg.Signal.ZScoreWindow {
		return ValidationError{"signal.zscore_min_obs", "must be in [2, zscore_window]"}
	}
	if cfg.Signal.ResidualEMA <= 0 || cfg.Signal.ResidualEMA > 1 {
		return ValidationError{"signal.residual_ema", "must be in (0, 1]"}
	}
	if cfg.Signal.ChaoticAlphaScale <= 0 || cfg.Signal.ChaoticAlphaScale > 1 {
		return ValidationError{"signal.chaotic_alpha_scale", "must be in (0, 1]"}
	}

	// === Regime ===
	if cfg.Regime.EntropyLow < 0 || cfg.Regime.EntropyLow > 1 {
		return ValidationError{"regime.entropy_low", "must be in [0, 1]"}
	}
	if cfg.Regime.EntropyHigh < 0 || cfg.Regime.EntropyHigh > 1 {
		return ValidationError{"regime.entropy_high", "must be in [0, 1]"}
	}
	if cfg.Regime.EntropyLow >= cfg.Regime.EntropyHigh {
		return ValidationError{"regime", "entropy_low must be < entropy_high"}
	}

	m := cfg.Regime.Multipliers
	if m.Chaotic < 0 {
		return ValidationError{"regime.multipliers.chaotic", "must be >= 0"}
	}
	if m.Chaotic > m.Transitional || m.Transitional > m.Stable {
		return ValidationError{"regime.multipliers", "must satisfy chaotic <= transitional <= stable"}
	}
	if m.Stable <= 0 {
		return ValidationError{"regime.multipliers.stable", "must be > 0"}
	}

	// === Risk ===
	if cfg.Risk.StopLossPct <= 0 || cfg.Risk.StopLossPct >= 1 {
		return ValidationError{"risk.stop_loss_pct", "must be in (0, 1)"}
	}
	if cfg.Risk.MaxDrawdownPct <= 0 || cfg.Risk.MaxDrawdownPct >= 1 {
		return ValidationError{"risk.max_drawdown_pct", "must be in (0, 1)"}
	}
	if cfg.Risk.RecoveryPct < 0 || cfg.Risk.RecoveryPct >= cfg.Risk.MaxDrawdownPct {
		return ValidationError{"risk.recovery_pct", "must be in [0, max_drawdown_pct)"}
	}
	if cfg.Risk.Leverage <= 0 {
		return ValidationError{"risk.leverage", "must be > 0"}
	}
	if cfg.Risk.NetExposure < 0 || cfg.Risk.NetExposure > 1 {
		return ValidationError{"risk.net_exposure", "must be in [0, 1]"}
	}

	// === Backtest ===
	if cfg.Backtest.RebalanceEvery < 1 {
		return ValidationError{"backtest.rebalance_every", "must be >= 1"}
	}
	if cfg.Backtest.TransactionCostBps < 0 {
		return ValidationError{"backtest.transaction_cost_bps", "must be >= 0"}
	}
	if cfg.Backtest.InitialEquity <= 0 {
		return ValidationError{"backtest.initial_equity", "must be > 0"}
	}

	return nil
}
