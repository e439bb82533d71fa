package commands

import (
	"fmt"

	"github.com/apexquant/topoarb/internal/backtest"
)

// Shared output formatting so every command prints results the same way.

func printSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

func printHeader(title string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	printSeparator()
}

func printBacktestResult(res *backtest.Result) {
	printHeader("Backtest Result")
	fmt.Printf("  Run ID      : %s\n", res.RunID)
	fmt.Printf("  Strategy    : %s (%s)\n", res.StrategyID, shortHash(res.ConfigHash))
	fmt.Printf("  Steps       : %d (%d rebalances, %d skipped, %d halted)\n",
		res.Steps, res.Rebalances, res.SkippedSteps, res.HaltSteps)
	printSeparator()
	fmt.Printf("  Equity      : %.4f -> %.4f\n", res.InitialEquity, res.FinalEquity)
	fmt.Printf("  Return      : %+.2f%%  (CAGR %+.2f%%)\n", res.TotalReturn*100, res.CAGR*100)
	fmt.Printf("  Volatility  : %.2f%% annualized\n", res.Volatility*100)
	fmt.Printf("  Sharpe      : %.2f\n", res.Sharpe)
	fmt.Printf("  Sortino     : %.2f\n", res.Sortino)
	fmt.Printf("  Max DD      : %.2f%%\n", res.MaxDrawdown*100)
	printSeparator()
	fmt.Printf("  Trades      : %d (%d wins / %d losses, win rate %.1f%%)\n",
		res.Trades, res.WinningTrades, res.LosingTrades, res.WinRate*100)
	fmt.Printf("  Turnover    : %.2f  (costs paid %.4f)\n", res.Turnover, res.CostPaid)
	fmt.Println("═══════════════════════════════════════════════════════════")
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
