package main

import (
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/org-relay/internal/handler"
	"github.com/angeloszaimis/org-relay/internal/metrics"
	"github.com/angeloszaimis/org-relay/internal/middleware"
)

func setupRouter(log *slog.Logger, relayHandler *handler.RelayHandler, healthHandler *handler.HealthHandler, metricsCollector *metrics.Collector) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /api/org", relayHandler)
	mux.Handle("GET /health", healthHandler)
	mux.Handle("GET /metrics", metricsCollector.PrometheusHandler())
	mux.HandleFunc("GET /stats", metricsCollector.Handler())

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(log),
		middleware.CORS,
	)
}
