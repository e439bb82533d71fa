// Package api exposes the read-only HTTP surface: engine status,
// snapshots, the equity curve and a websocket stream of evaluations.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/apexquant/topoarb/internal/api/handlers"
	"github.com/apexquant/topoarb/internal/realtime"
	"github.com/apexquant/topoarb/pkg/database"
	"github.com/apexquant/topoarb/pkg/logger"
)

// NewRouter creates and configures the HTTP router. db may be nil when
// running without Postgres; the database health endpoint is then omitted.
func NewRouter(status *handlers.StatusHandler, hub *realtime.Hub, db *database.DB, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	if db != nil {
		r.HandleFunc("/health/db", dbHealthHandler(db)).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", status.GetStatus).Methods("GET")
	api.HandleFunc("/snapshot", status.GetSnapshot).Methods("GET")
	api.HandleFunc("/equity", status.GetEquity).Methods("GET")
	api.HandleFunc("/strategy", status.GetStrategy).Methods("GET")
	api.HandleFunc("/ws", hub.HandleWS)

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "topoarb-api",
	})
}

// dbHealthHandler reports database connectivity and pool stats.
func dbHealthHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health, _ := db.HealthCheck(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if !health.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
