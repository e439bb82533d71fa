// Package handlers implements the read-only diagnostic endpoints. The
// API never mutates engine state; it observes the hub.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/apexquant/topoarb/internal/realtime"
	"github.com/apexquant/topoarb/internal/strategy"
	"github.com/apexquant/topoarb/pkg/logger"
)

// StatusHandler serves engine status, snapshots and the equity curve.
type StatusHandler struct {
	hub       *realtime.Hub
	cfg       *strategy.Config
	hash      string
	startedAt time.Time
	logger    *logger.Logger
}

// NewStatusHandler creates the handler. hash is the canonical strategy
// config hash so clients can pin results to an exact configuration.
func NewStatusHandler(hub *realtime.Hub, cfg *strategy.Config, hash string, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		hub:       hub,
		cfg:       cfg,
		hash:      hash,
		startedAt: time.Now(),
		logger:    log,
	}
}

// GetStatus returns a compact engine overview.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"strategy_id": h.cfg.Meta.StrategyID,
		"config_hash": h.hash,
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
		"subscribers": h.hub.SubscriberCount(),
	}

	if snap := h.hub.Latest(); snap != nil {
		status["step"] = snap.Step
		status["regime"] = snap.Regime
		status["equity"] = snap.Equity
		status["drawdown"] = snap.Drawdown
		status["portfolio_status"] = snap.Status
		status["last_evaluation"] = snap.Timestamp
	}

	writeJSON(w, http.StatusOK, status)
}

// GetSnapshot returns the full latest evaluation snapshot.
func (h *StatusHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.hub.Latest()
	if snap == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no evaluation has run yet"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetEquity returns the recorded live equity curve.
func (h *StatusHandler) GetEquity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"points": h.hub.EquityHistory(),
	})
}

// GetStrategy returns the loaded strategy configuration.
func (h *StatusHandler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"config_hash": h.hash,
		"config":      h.cfg,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
