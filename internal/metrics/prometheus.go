package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "org_relay"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Exporter mirrors collector events into Prometheus series on a private
// registry, so several collectors can live in one process (tests).
type Exporter struct {
	registry         *prometheus.Registry
	requests         prometheus.Counter
	responses        *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

func NewExporter() *Exporter {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	auto := promauto.With(registry)

	return &Exporter{
		registry: registry,
		requests: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of relay requests received",
		}),
		responses: auto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "responses_total",
				Help:      "Relay responses by status code returned to the caller",
			},
			[]string{"status_code"},
		),
		upstreamRequests: auto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Outbound calls to the organisation API by outcome and status code",
			},
			[]string{"outcome", "status_code"},
		),
		upstreamDuration: auto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "request_duration_seconds",
				Help:      "Latency of outbound calls to the organisation API",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}
}

func (e *Exporter) observeRequest() {
	e.requests.Inc()
}

func (e *Exporter) observeResponse(statusCode int) {
	e.responses.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (e *Exporter) observeUpstream(duration time.Duration, statusCode int, ok bool) {
	outcome := outcomeFailure
	if ok {
		outcome = outcomeSuccess
	}

	code := "none"
	if statusCode != 0 {
		code = strconv.Itoa(statusCode)
	}

	e.upstreamRequests.WithLabelValues(outcome, code).Inc()
	e.upstreamDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
