package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/ratelimit"
)

// newMonitoringRouter serves health and counters. budget may be nil.
func newMonitoringRouter(budget *ratelimit.Budget) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", healthHandler)
	r.Get("/metrics", metricsHandler(budget))
	return r
}

func startMonitoringServer(ctx context.Context, port string, budget *ratelimit.Budget) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           newMonitoringRouter(budget),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Starting monitoring server", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Monitoring server error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	code := http.StatusOK
	if !metrics.Global.Healthy() {
		status = "error"
		code = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":       status,
		"last_run":     stats["last_run_time"],
		"last_outcome": stats["last_outcome"],
		"last_error":   stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response)
}

func metricsHandler(budget *ratelimit.Budget) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := metrics.Global.GetStats()
		if budget != nil {
			for k, v := range budget.GetStats() {
				stats[k] = v
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	}
}
