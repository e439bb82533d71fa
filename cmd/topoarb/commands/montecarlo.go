package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/apexquant/topoarb/internal/backtest"
	"github.com/apexquant/topoarb/internal/engine"
	"github.com/apexquant/topoarb/internal/risk"
)

var montecarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Monte Carlo risk simulation of the strategy",
	Long: `Replays the strategy over the historical window, then bootstraps its
daily returns over the horizon to estimate VaR, CVaR and loss
probability.

Example:
  go run ./cmd/topoarb montecarlo --from 2023-01-02 --sims 20000 --horizon 10
  go run ./cmd/topoarb montecarlo --from 2023-01-02 --seed 42`,
	RunE: runMonteCarlo,
}

var (
	mcFrom    string
	mcTo      string
	mcSims    int
	mcHorizon int
	mcSeed    int64
)

func init() {
	rootCmd.AddCommand(montecarloCmd)

	montecarloCmd.Flags().StringVar(&mcFrom, "from", "", "start date (YYYY-MM-DD, required)")
	montecarloCmd.Flags().StringVar(&mcTo, "to", "", "end date (YYYY-MM-DD, default today)")
	montecarloCmd.Flags().IntVar(&mcSims, "sims", 10000, "number of simulations")
	montecarloCmd.Flags().IntVar(&mcHorizon, "horizon", 10, "horizon in trading days")
	montecarloCmd.Flags().Int64Var(&mcSeed, "seed", 0, "RNG seed (0 uses the clock)")

	montecarloCmd.MarkFlagRequired("from")
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, log, err := initApp()
	if err != nil {
		return err
	}

	strat, _, err := loadStrategy(cfg)
	if err != nil {
		return err
	}

	from, to, err := parseDateRange(mcFrom, mcTo)
	if err != nil {
		return err
	}

	ctx := context.Background()
	symbols, err := resolveUniverse(ctx, cfg, strat, log)
	if err != nil {
		return err
	}

	series, err := loadSeries(ctx, cfg, symbols, from, to, log)
	if err != nil {
		return err
	}

	bt := backtest.NewEngine(strat, engine.New(strat, log), log)
	res, err := bt.Run(ctx, series)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	dailyReturns := make([]float64, 0, len(res.EquityCurve))
	prev := res.InitialEquity
	for _, pt := range res.EquityCurve {
		if prev > 0 {
			dailyReturns = append(dailyReturns, pt.Equity/prev-1)
		}
		prev = pt.Equity
	}

	sim := risk.NewMonteCarloSimulator(risk.MonteCarloConfig{
		NumSimulations: mcSims,
		HorizonDays:    mcHorizon,
		Seed:           mcSeed,
	})

	mc, err := sim.SimulateSeries(ctx, dailyReturns)
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	printHeader("Monte Carlo Risk")
	fmt.Printf("  Run ID      : %s\n", mc.RunID)
	fmt.Printf("  Simulations : %d x %d days\n", mcSims, mcHorizon)
	printSeparator()
	fmt.Printf("  Mean Return : %+.2f%%\n", mc.MeanReturn*100)
	fmt.Printf("  Std Dev     : %.2f%%\n", mc.StdDev*100)
	fmt.Printf("  P(loss)     : %.1f%%\n", mc.ProbLoss*100)
	fmt.Printf("  VaR  95/99  : %.2f%% / %.2f%%\n", mc.VaR95*100, mc.VaR99*100)
	fmt.Printf("  CVaR 95/99  : %.2f%% / %.2f%%\n", mc.CVaR95*100, mc.CVaR99*100)
	printSeparator()

	pcts := make([]int, 0, len(mc.Percentiles))
	for p := range mc.Percentiles {
		pcts = append(pcts, p)
	}
	sort.Ints(pcts)
	for _, p := range pcts {
		fmt.Printf("  p%-3d        : %+.2f%%\n", p, mc.Percentiles[p]*100)
	}
	fmt.Println("═══════════════════════════════════════════════════════════")

	return nil
}
