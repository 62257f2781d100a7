package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type EventType string

const (
	EventRequestReceived   EventType = "request_received"
	EventUpstreamCompleted EventType = "upstream_completed"
	EventUpstreamFailed    EventType = "upstream_failed"
	EventResponseSent      EventType = "response_sent"
)

// MetricEvent describes one step of a relayed request. For upstream events
// StatusCode is the upstream status and stays zero for network failures;
// for EventResponseSent it is the status returned to the caller.
type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Duration   time.Duration
	StatusCode int
}

type Collector struct {
	eventCh  chan MetricEvent
	metrics  *Metrics
	exporter *Exporter
	logger   *slog.Logger
	done     chan struct{}
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	if bufferSize < 1 {
		bufferSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Collector{
		eventCh:  make(chan MetricEvent, bufferSize),
		metrics:  NewMetrics(),
		exporter: NewExporter(),
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Emit queues an event without blocking. Events are dropped when the
// buffer is full so the request path never waits on metrics.
func (c *Collector) Emit(event MetricEvent) bool {
	if c == nil {
		return false
	}

	select {
	case c.eventCh <- event:
		return true
	default:
		c.logger.Debug("Metrics buffer full, dropping event", slog.String("type", string(event.Type)))
		return false
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

// Done is closed once the collector has drained its buffer after ctx is
// cancelled. It never closes if Start was not called.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer close(c.done)
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRequestReceived:
		c.metrics.IncrementRequests()
		c.exporter.observeRequest()

	case EventUpstreamCompleted:
		c.metrics.RecordUpstream(event.Duration, event.StatusCode, true)
		c.exporter.observeUpstream(event.Duration, event.StatusCode, true)

	case EventUpstreamFailed:
		c.metrics.RecordUpstream(event.Duration, event.StatusCode, false)
		c.exporter.observeUpstream(event.Duration, event.StatusCode, false)

	case EventResponseSent:
		c.metrics.RecordResponse(event.StatusCode)
		c.exporter.observeResponse(event.StatusCode)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}

// PrometheusHandler serves the collector's registry in exposition format.
func (c *Collector) PrometheusHandler() http.Handler {
	return c.exporter.Handler()
}
