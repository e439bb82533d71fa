package backtest

import (
	"math"
	"time"
)

const tradingDaysPerYear = 252

// computeMetrics fills the performance block of a result from its equity
// curve. Risk-free rate is taken as zero.
func computeMetrics(result *Result, start, end time.Time) {
	if len(result.EquityCurve) == 0 || result.InitialEquity <= 0 {
		return
	}

	result.TotalReturn = result.FinalEquity/result.InitialEquity - 1

	years := end.Sub(start).Hours() / 24 / 365.25
	if years > 0 && result.FinalEquity > 0 {
		result.CAGR = math.Pow(result.FinalEquity/result.InitialEquity, 1/years) - 1
	}

	daily := make([]float64, 0, len(result.EquityCurve)-1)
	for i := 1; i < len(result.EquityCurve); i++ {
		prev := result.EquityCurve[i-1].Equity
		if prev <= 0 {
			continue
		}
		daily = append(daily, result.EquityCurve[i].Equity/prev-1)
	}

	result.Volatility = stddev(daily) * math.Sqrt(tradingDaysPerYear)

	annualized := meanReturn(daily) * tradingDaysPerYear
	if result.Volatility > 0 {
		result.Sharpe = annualized / result.Volatility
	}

	var downside []float64
	for _, r := range daily {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	downsideDev := stddev(downside) * math.Sqrt(tradingDaysPerYear)
	if downsideDev > 0 {
		result.Sortino = annualized / downsideDev
	}

	result.MaxDrawdown = maxDrawdown(result.EquityCurve)

	if result.Trades > 0 {
		result.WinRate = float64(result.WinningTrades) / float64(result.Trades)
	}
}

func meanReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range returns {
		sum += r
	}
	return sum / float64(len(returns))
}

func stddev(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mu := meanReturn(returns)
	variance := 0.0
	for _, r := range returns {
		d := r - mu
		variance += d * d
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance)
}

func maxDrawdown(curve []EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	maxDD := 0.0
	peak := curve[0].Equity
	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - point.Equity) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
