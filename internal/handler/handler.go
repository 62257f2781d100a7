package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/angeloszaimis/org-relay/internal/metrics"
	"github.com/angeloszaimis/org-relay/internal/middleware"
	"github.com/angeloszaimis/org-relay/internal/upstream"
)

// OrgFetcher performs the outbound call. *upstream.Client implements it.
type OrgFetcher interface {
	FetchOrg(ctx context.Context) (upstream.Result, error)
}

type RelayHandler struct {
	logger           *slog.Logger
	fetcher          OrgFetcher
	metricsCollector *metrics.Collector
}

// ServeHTTP relays GET /api/org. Nothing from the inbound request other
// than its context is used, so query strings, headers and bodies cannot
// change the outcome.
func (h *RelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestIDFromContext(r.Context())

	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:      metrics.EventRequestReceived,
		Timestamp: time.Now(),
	})

	start := time.Now()
	res, err := h.fetcher.FetchOrg(r.Context())

	if err != nil {
		duration := time.Since(start)

		statusCode := 0
		var failure *upstream.Failure
		if errors.As(err, &failure) {
			statusCode = failure.StatusCode
		}

		h.metricsCollector.Emit(metrics.MetricEvent{
			Type:       metrics.EventUpstreamFailed,
			Timestamp:  time.Now(),
			Duration:   duration,
			StatusCode: statusCode,
		})

		h.logger.Error("Upstream request failed",
			slog.String("request_id", requestID),
			slog.Int("upstream_status", statusCode),
			slog.Duration("duration", duration),
			slog.Any("err", err))

		writeError(w, http.StatusInternalServerError, err)
		h.emitResponse(http.StatusInternalServerError)
		return
	}

	duration := res.Duration
	if duration == 0 {
		duration = time.Since(start)
	}

	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:       metrics.EventUpstreamCompleted,
		Timestamp:  time.Now(),
		Duration:   duration,
		StatusCode: res.StatusCode,
	})

	h.logger.Debug("Relayed upstream response",
		slog.String("request_id", requestID),
		slog.Int("upstream_status", res.StatusCode),
		slog.Int("bytes", len(res.Body)),
		slog.Duration("duration", duration))

	writeRawJSON(w, http.StatusOK, res.Body)
	h.emitResponse(http.StatusOK)
}

func (h *RelayHandler) emitResponse(statusCode int) {
	h.metricsCollector.Emit(metrics.MetricEvent{
		Type:       metrics.EventResponseSent,
		Timestamp:  time.Now(),
		StatusCode: statusCode,
	})
}

// NewRelayHandler builds the relay. collector may be nil to disable metrics.
func NewRelayHandler(logger *slog.Logger, fetcher OrgFetcher, collector *metrics.Collector) *RelayHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &RelayHandler{
		logger:           logger,
		fetcher:          fetcher,
		metricsCollector: collector,
	}
}
