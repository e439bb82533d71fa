// Package commands implements the topoarb CLI: the live service, the
// backtest and optimization runners, risk simulation and data tooling.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apexquant/topoarb/internal/marketdata"
	"github.com/apexquant/topoarb/internal/strategy"
	"github.com/apexquant/topoarb/pkg/config"
	"github.com/apexquant/topoarb/pkg/httputil"
	"github.com/apexquant/topoarb/pkg/logger"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "topoarb",
	Short: "Topological statistical arbitrage engine",
	Long: `topoarb fuses graph-diffusion residuals with persistent-homology
regime detection to trade mean reversion inside a correlated universe.

Usage:
  go run ./cmd/topoarb [command]

Examples:
  go run ./cmd/topoarb serve
  go run ./cmd/topoarb backtest --from 2023-01-02 --to 2024-06-28
  go run ./cmd/topoarb optimize --alphas 0.3,0.6 --exposures 0.4,0.7
  go run ./cmd/topoarb fetch --from 2023-01-02`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML file (default from STRATEGY_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initApp loads environment config and builds the logger.
func initApp() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)
	return cfg, log, nil
}

// loadStrategy reads and validates the strategy file, returning its
// canonical hash alongside.
func loadStrategy(cfg *config.Config) (*strategy.Config, string, error) {
	path := strategyFile
	if path == "" {
		path = cfg.StrategyFile
	}

	strat, _, err := strategy.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("load strategy %s: %w", path, err)
	}
	hash, err := strategy.Hash(strat)
	if err != nil {
		return nil, "", fmt.Errorf("hash strategy: %w", err)
	}
	return strat, hash, nil
}

// resolveUniverse expands the strategy universe: explicit symbols win,
// otherwise the sector is resolved against the constituents list.
func resolveUniverse(ctx context.Context, cfg *config.Config, strat *strategy.Config, log *logger.Logger) ([]string, error) {
	if len(strat.Universe.Symbols) > 0 {
		return strat.Universe.Symbols, nil
	}

	client := marketdata.NewSectorClient(httputil.New(cfg, log), "", log)
	sectors, err := client.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve sector %q: %w", strat.Universe.Sector, err)
	}

	symbols := marketdata.SectorSymbols(sectors, strat.Universe.Sector)
	if len(symbols) < 2 {
		return nil, fmt.Errorf("sector %q resolved to %d symbols", strat.Universe.Sector, len(symbols))
	}
	return symbols, nil
}
