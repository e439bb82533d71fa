package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apexquant/topoarb/internal/optimize"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Grid search over strategy parameters",
	Long: `Sweeps alpha, net exposure, lookback and rebalance interval over a
historical window, ranking candidates by Sharpe. Axes left empty keep
the strategy file's value.

Example:
  go run ./cmd/topoarb optimize --from 2023-01-02 --alphas 0.3,0.6 --exposures 0.4,0.7,0.9
  go run ./cmd/topoarb optimize --from 2023-01-02 --lookbacks 80,120 --top 5`,
	RunE: runOptimize,
}

var (
	optFrom       string
	optTo         string
	optAlphas     string
	optExposures  string
	optLookbacks  string
	optRebalances string
	optTop        int
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVar(&optFrom, "from", "", "start date (YYYY-MM-DD, required)")
	optimizeCmd.Flags().StringVar(&optTo, "to", "", "end date (YYYY-MM-DD, default today)")
	optimizeCmd.Flags().StringVar(&optAlphas, "alphas", "", "comma-separated alpha values")
	optimizeCmd.Flags().StringVar(&optExposures, "exposures", "", "comma-separated net exposure values")
	optimizeCmd.Flags().StringVar(&optLookbacks, "lookbacks", "", "comma-separated lookback days")
	optimizeCmd.Flags().StringVar(&optRebalances, "rebalances", "", "comma-separated rebalance intervals")
	optimizeCmd.Flags().IntVar(&optTop, "top", 10, "candidates to display")

	optimizeCmd.MarkFlagRequired("from")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, log, err := initApp()
	if err != nil {
		return err
	}

	strat, _, err := loadStrategy(cfg)
	if err != nil {
		return err
	}

	from, to, err := parseDateRange(optFrom, optTo)
	if err != nil {
		return err
	}

	grid, err := buildGrid()
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

	candidates, err := optimize.New(strat, log).Search(ctx, series, grid)
	if err != nil {
		return fmt.Errorf("grid search: %w", err)
	}

	printHeader("Grid Search")
	fmt.Printf("  %-7s %-9s %-9s %-10s %-8s %-8s %s\n",
		"alpha", "exposure", "lookback", "rebalance", "sharpe", "return", "maxdd")
	printSeparator()

	shown := 0
	for _, c := range candidates {
		if shown >= optTop {
			break
		}
		if c.Err != nil {
			fmt.Printf("  %-7.2f %-9.2f %-9d %-10d invalid: %v\n",
				c.Alpha, c.NetExposure, c.Lookback, c.Rebalance, c.Err)
			shown++
			continue
		}
		fmt.Printf("  %-7.2f %-9.2f %-9d %-10d %-8.2f %+-8.2f %.2f%%\n",
			c.Alpha, c.NetExposure, c.Lookback, c.Rebalance,
			c.Result.Sharpe, c.Result.TotalReturn*100, c.Result.MaxDrawdown*100)
		shown++
	}
	fmt.Println("═══════════════════════════════════════════════════════════")

	return nil
}

func buildGrid() (optimize.Grid, error) {
	var grid optimize.Grid
	var err error

	if grid.Alphas, err = parseFloats(optAlphas); err != nil {
		return grid, fmt.Errorf("--alphas: %w", err)
	}
	if grid.NetExposures, err = parseFloats(optExposures); err != nil {
		return grid, fmt.Errorf("--exposures: %w", err)
	}
	if grid.Lookbacks, err = parseInts(optLookbacks); err != nil {
		return grid, fmt.Errorf("--lookbacks: %w", err)
	}
	if grid.Rebalances, err = parseInts(optRebalances); err != nil {
		return grid, fmt.Errorf("--rebalances: %w", err)
	}
	return grid, nil
}

func parseFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	var out []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
