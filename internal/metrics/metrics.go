package metrics

import (
	"maps"
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex            sync.RWMutex
	requests         int64
	upstreamCalls    int64
	upstreamFailures int64
	upstreamTimes    []time.Duration
	statusCodes      map[int]int64
	responseCodes    map[int]int64
	startTime        time.Time
}

type Snapshot struct {
	TotalRequests    int64         `json:"total_requests"`
	UpstreamCalls    int64         `json:"upstream_calls"`
	UpstreamFailures int64         `json:"upstream_failures"`
	Uptime           time.Duration `json:"uptime"`
	AvgUpstream      time.Duration `json:"avg_upstream"`
	P50Upstream      time.Duration `json:"p50_upstream"`
	P95Upstream      time.Duration `json:"p95_upstream"`
	P99Upstream      time.Duration `json:"p99_upstream"`
	StatusCodes      map[int]int64 `json:"status_codes"`
	ResponseCodes    map[int]int64 `json:"response_codes"`
}

func (m *Metrics) IncrementRequests() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests++
}

// RecordUpstream stores the latency of one outbound call. Status zero means
// no response was received and is not counted in StatusCodes.
func (m *Metrics) RecordUpstream(duration time.Duration, statusCode int, ok bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.upstreamCalls++
	if !ok {
		m.upstreamFailures++
	}

	m.upstreamTimes = append(m.upstreamTimes, duration)
	if len(m.upstreamTimes) > maxSamples {
		m.upstreamTimes = m.upstreamTimes[1:]
	}

	if statusCode != 0 {
		m.statusCodes[statusCode]++
	}
}

// RecordResponse counts the status the relay answered its caller with.
func (m *Metrics) RecordResponse(statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.responseCodes[statusCode]++
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		TotalRequests:    m.requests,
		UpstreamCalls:    m.upstreamCalls,
		UpstreamFailures: m.upstreamFailures,
		Uptime:           time.Since(m.startTime),
		StatusCodes:      maps.Clone(m.statusCodes),
		ResponseCodes:    maps.Clone(m.responseCodes),
	}

	if len(m.upstreamTimes) > 0 {
		sorted := make([]time.Duration, len(m.upstreamTimes))
		copy(sorted, m.upstreamTimes)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i] < sorted[j]
		})

		snap.AvgUpstream = average(sorted)
		snap.P50Upstream = percentile(sorted, 0.50)
		snap.P95Upstream = percentile(sorted, 0.95)
		snap.P99Upstream = percentile(sorted, 0.99)
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		statusCodes:   make(map[int]int64),
		responseCodes: make(map[int]int64),
		startTime:     time.Now(),
	}
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
