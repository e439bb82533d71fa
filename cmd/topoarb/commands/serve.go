package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/apexquant/topoarb/internal/api"
	"github.com/apexquant/topoarb/internal/api/handlers"
	"github.com/apexquant/topoarb/internal/engine"
	"github.com/apexquant/topoarb/internal/marketdata"
	"github.com/apexquant/topoarb/internal/realtime"
	"github.com/apexquant/topoarb/internal/scheduler"
	"github.com/apexquant/topoarb/internal/scheduler/jobs"
	"github.com/apexquant/topoarb/pkg/database"
	"github.com/apexquant/topoarb/pkg/httputil"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the live service: scheduler, evaluation loop and API",
	Long: `Starts the long-running service. The scheduler ingests closes after
the bell and evaluates the strategy on market hours; the API exposes
status, snapshots, the equity curve and a websocket stream.

Requires DATABASE_URL.

Example:
  go run ./cmd/topoarb serve
  PORT=8090 go run ./cmd/topoarb serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := initApp()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("serve requires DATABASE_URL")
	}

	strat, hash, err := loadStrategy(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	symbols, err := resolveUniverse(ctx, cfg, strat, log)
	if err != nil {
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	repo := marketdata.NewRepository(db.Pool)
	provider := marketdata.NewYahooClient(httputil.New(cfg, log), cfg.Market.BaseURL, log)
	hub := realtime.NewHub(log)
	eng := engine.New(strat, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewIngestJob(provider, repo, symbols, log)); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewSignalJob(strat, cfg.Schedule.CronSpec, repo, eng, hub, symbols, log)); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewCoverageJob(repo, symbols, log)); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	status := handlers.NewStatusHandler(hub, strat, hash, log)
	router := api.NewRouter(status, hub, db, log)
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.WithFields(map[string]interface{}{
		"strategy": strat.Meta.StrategyID,
		"hash":     shortHash(hash),
		"symbols":  len(symbols),
		"port":     cfg.Port,
	}).Info("Service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
