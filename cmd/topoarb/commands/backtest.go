package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apexquant/topoarb/internal/backtest"
	"github.com/apexquant/topoarb/internal/engine"
	"github.com/apexquant/topoarb/internal/marketdata"
	"github.com/apexquant/topoarb/pkg/database"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the strategy over historical daily closes",
	Long: `Runs the full pipeline over a historical window: correlation graph,
diffusion residuals, regime detection and the decision engine, with
daily mark to market and transaction costs on rebalances.

Example:
  go run ./cmd/topoarb backtest --from 2023-01-02 --to 2024-06-28
  go run ./cmd/topoarb backtest --from 2023-01-02 --save`,
	RunE: runBacktest,
}

var (
	backtestFrom string
	backtestTo   string
	backtestSave bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "start date (YYYY-MM-DD, required)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "end date (YYYY-MM-DD, default today)")
	backtestCmd.Flags().BoolVar(&backtestSave, "save", false, "persist the run summary to Postgres")

	backtestCmd.MarkFlagRequired("from")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, log, err := initApp()
	if err != nil {
		return err
	}

	strat, hash, err := loadStrategy(cfg)
	if err != nil {
		return err
	}

	from, to, err := parseDateRange(backtestFrom, backtestTo)
	if err != nil {
		return err
	}

	ctx := context.Background()
	symbols, err := resolveUniverse(ctx, cfg, strat, log)
	if err != nil {
		return err
	}

	fmt.Printf("Strategy %s (%s), %d symbols, %s ~ %s\n",
		strat.Meta.StrategyID, shortHash(hash), len(symbols),
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	series, err := loadSeries(ctx, cfg, symbols, from, to, log)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d sessions for %d symbols\n", series.Len(), len(series.Symbols))

	bt := backtest.NewEngine(strat, engine.New(strat, log), log)
	res, err := bt.Run(ctx, series)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	printBacktestResult(res)

	if backtestSave {
		if cfg.Database.URL == "" {
			return fmt.Errorf("--save requires DATABASE_URL")
		}
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		if err := marketdata.NewRepository(db.Pool).SaveBacktestRun(ctx, res); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		fmt.Printf("✅ Run %s saved\n", res.RunID)
	}

	return nil
}
