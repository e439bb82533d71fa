package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apexquant/topoarb/internal/marketdata"
	"github.com/apexquant/topoarb/pkg/database"
	"github.com/apexquant/topoarb/pkg/httputil"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Backfill daily closes into Postgres",
	Long: `Fetches daily closes for the strategy universe and upserts them into
the store. Requires DATABASE_URL.

Example:
  go run ./cmd/topoarb fetch --from 2022-01-03
  go run ./cmd/topoarb fetch --from 2022-01-03 --to 2024-06-28
  go run ./cmd/topoarb fetch --from 2019-01-02 --sp500`,
	RunE: runFetch,
}

var (
	fetchFrom  string
	fetchTo    string
	fetchSP500 bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "start date (YYYY-MM-DD, required)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "end date (YYYY-MM-DD, default today)")
	fetchCmd.Flags().BoolVar(&fetchSP500, "sp500", false, "backfill the pinned survivor-free S&P 500 universe instead of the strategy universe")

	fetchCmd.MarkFlagRequired("from")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, log, err := initApp()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("fetch requires DATABASE_URL")
	}

	from, to, err := parseDateRange(fetchFrom, fetchTo)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var symbols []string
	if fetchSP500 {
		symbols = marketdata.SP500Tickers()
	} else {
		strat, _, err := loadStrategy(cfg)
		if err != nil {
			return err
		}
		symbols, err = resolveUniverse(ctx, cfg, strat, log)
		if err != nil {
			return err
		}
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	repo := marketdata.NewRepository(db.Pool)
	provider := marketdata.NewYahooClient(httputil.New(cfg, log), cfg.Market.BaseURL, log)

	printHeader("Price Backfill")
	fmt.Printf("  Period  : %s ~ %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Printf("  Symbols : %d\n", len(symbols))
	printSeparator()

	var fetched, failed int
	for i, sym := range symbols {
		bars, err := provider.DailyCloses(ctx, sym, from, to)
		if err != nil {
			failed++
			fmt.Printf("  [%d/%d] %s: fetch failed: %v\n", i+1, len(symbols), sym, err)
			continue
		}
		if err := repo.SaveBars(ctx, bars); err != nil {
			failed++
			fmt.Printf("  [%d/%d] %s: save failed: %v\n", i+1, len(symbols), sym, err)
			continue
		}
		fetched++
		fmt.Printf("  [%d/%d] %s: %d bars\n", i+1, len(symbols), sym, len(bars))
	}

	printSeparator()
	fmt.Printf("✅ Backfill complete: %d ok, %d failed\n", fetched, failed)
	return nil
}
