package jobs

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/apexquant/topoarb/internal/engine"
	"github.com/apexquant/topoarb/internal/marketdata"
	"github.com/apexquant/topoarb/internal/realtime"
	"github.com/apexquant/topoarb/internal/returns"
	"github.com/apexquant/topoarb/internal/strategy"
	"github.com/apexquant/topoarb/pkg/logger"
)

// closesReader is the repository slice the signal job needs.
type closesReader interface {
	GetCloses(ctx context.Context, symbol string, from, to time.Time) ([]marketdata.Bar, error)
}

// SignalJob runs one evaluation step on schedule: load the lookback
// window from the store, mark the book to market, step the engine and
// publish the snapshot. Engine state lives here between ticks.
type SignalJob struct {
	cfg      *strategy.Config
	schedule string
	repo     closesReader
	eng      *engine.Engine
	hub      *realtime.Hub
	symbols  []string
	logger   *logger.Logger

	mu          sync.Mutex
	state       engine.State
	equity      float64
	prevWeights map[string]float64
	prevPrices  map[string]float64
}

// NewSignalJob creates the evaluation job. schedule is a six-field cron
// expression, usually from SCHEDULE_CRON.
func NewSignalJob(cfg *strategy.Config, schedule string, repo closesReader, eng *engine.Engine, hub *realtime.Hub, symbols []string, log *logger.Logger) *SignalJob {
	return &SignalJob{
		cfg:         cfg,
		schedule:    schedule,
		repo:        repo,
		eng:         eng,
		hub:         hub,
		symbols:     symbols,
		logger:      log,
		state:       engine.NewState(cfg, cfg.Backtest.InitialEquity),
		equity:      cfg.Backtest.InitialEquity,
		prevWeights: make(map[string]float64),
		prevPrices:  make(map[string]float64),
	}
}

func (j *SignalJob) Name() string {
	return "signal_evaluation"
}

func (j *SignalJob) Schedule() string {
	return j.schedule
}

// Run executes one evaluation tick.
func (j *SignalJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	window, lastPrices, err := j.loadWindow(ctx)
	if err != nil {
		return err
	}

	j.markToMarket(lastPrices)

	next, res, err := j.eng.Step(ctx, j.state, window, j.equity)
	if err != nil {
		return fmt.Errorf("evaluation step: %w", err)
	}

	j.state = next
	j.equity = next.Portfolio.Equity
	j.prevWeights = signedWeights(next)
	j.prevPrices = lastPrices

	j.hub.Publish(realtime.NewStepSnapshot(res, &next.Portfolio, time.Now()))

	j.logger.WithFields(map[string]interface{}{
		"step":    res.Step,
		"regime":  string(res.Regime),
		"equity":  next.Portfolio.Equity,
		"skipped": res.Skipped,
	}).Info("Evaluation step completed")
	return nil
}

// loadWindow assembles the engine input from stored closes. The query
// range is twice the lookback in calendar days so weekends and holidays
// still leave enough trading days.
func (j *SignalJob) loadWindow(ctx context.Context) (returns.Window, map[string]float64, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -2*j.cfg.Universe.LookbackDays)

	bars := make(map[string][]marketdata.Bar, len(j.symbols))
	for _, sym := range j.symbols {
		bs, err := j.repo.GetCloses(ctx, sym, from, to)
		if err != nil {
			j.logger.WithField("symbol", sym).WithError(err).Warn("Close query failed")
			continue
		}
		if len(bs) > 0 {
			bars[sym] = bs
		}
	}
	if len(bars) < 2 {
		return returns.Window{}, nil, fmt.Errorf("only %d symbols have stored closes", len(bars))
	}

	series := marketdata.BuildSeries(bars)
	lookback := j.cfg.Universe.LookbackDays
	if series.Len() < lookback {
		return returns.Window{}, nil, fmt.Errorf("only %d stored sessions, need %d", series.Len(), lookback)
	}

	window := returns.Window{Symbols: series.Symbols}
	lastPrices := make(map[string]float64, len(series.Symbols))
	offset := series.Len() - lookback
	for i, sym := range series.Symbols {
		window.Prices = append(window.Prices, series.Prices[i][offset:])
		if p := lastValid(series.Prices[i]); p > 0 {
			lastPrices[sym] = p
		}
	}
	return window, lastPrices, nil
}

// markToMarket applies the book's return since the previous tick.
func (j *SignalJob) markToMarket(lastPrices map[string]float64) {
	var ret float64
	for sym, w := range j.prevWeights {
		prev, okPrev := j.prevPrices[sym]
		cur, okCur := lastPrices[sym]
		if !okPrev || !okCur || prev <= 0 {
			continue
		}
		ret += w * (cur/prev - 1)
	}
	j.equity *= 1 + ret
	if j.equity < 0 {
		j.equity = 0
	}
}

func signedWeights(st engine.State) map[string]float64 {
	weights := make(map[string]float64, len(st.Portfolio.Positions))
	for sym, pos := range st.Portfolio.Positions {
		weights[sym] = pos.Signed()
	}
	return weights
}

func lastValid(prices []float64) float64 {
	for i := len(prices) - 1; i >= 0; i-- {
		if !math.IsNaN(prices[i]) && prices[i] > 0 {
			return prices[i]
		}
	}
	return 0
}
