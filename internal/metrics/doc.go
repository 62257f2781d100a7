// Package metrics records what the relay does without slowing it down.
//
// The handler emits events into a buffered channel and a dedicated goroutine
// folds them into two views:
//   - an in-memory snapshot (request totals, upstream failures, latency
//     percentiles, upstream status codes) served as JSON on /stats
//   - Prometheus series on a private registry served on /metrics
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventUpstreamCompleted,
//		Duration:   150 * time.Millisecond,
//		StatusCode: 200,
//	})
//
//	snapshot := collector.Snapshot()
//
// Emit never blocks; when the buffer is full the event is dropped. On
// context cancellation the collector drains what is already buffered.
package metrics
