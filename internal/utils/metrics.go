package utils

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// OperationStats is a summary of recorded latencies for one operation.
type OperationStats struct {
	Count      int64         `json:"count"`
	Mean       time.Duration `json:"mean"`
	P95        time.Duration `json:"p95"`
	P99        time.Duration `json:"p99"`
	ErrorCount int64         `json:"errors"`
}

// MetricsCollector tracks per-operation latency across the system.
type MetricsCollector struct {
	mu           sync.RWMutex
	requestCount uint64
	errorCount   uint64

	// Maps operation name to a latency histogram in microseconds.
	operationTimes map[string]*hdrhistogram.Histogram
	operationErrs  map[string]int64

	systemStartTime time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		operationTimes:  make(map[string]*hdrhistogram.Histogram),
		operationErrs:   make(map[string]int64),
		systemStartTime: time.Now(),
	}
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.requestCount++
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.errorCount++
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	h, exists := mc.operationTimes[operationName]
	if !exists {
		// 1us to 60s, 3 significant figures
		h = hdrhistogram.New(1, 60_000_000, 3)
		mc.operationTimes[operationName] = h
	}
	_ = h.RecordValue(duration.Microseconds())
}

func (mc *MetricsCollector) AddOperationError(operationName string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.operationErrs[operationName]++
	mc.errorCount++
}

// Snapshot returns summarized stats for every recorded operation.
func (mc *MetricsCollector) Snapshot() map[string]OperationStats {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	out := make(map[string]OperationStats, len(mc.operationTimes))
	for name, h := range mc.operationTimes {
		out[name] = OperationStats{
			Count:      h.TotalCount(),
			Mean:       time.Duration(h.Mean()) * time.Microsecond,
			P95:        time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
			P99:        time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
			ErrorCount: mc.operationErrs[name],
		}
	}
	return out
}

// Uptime reports how long the collector has been running.
func (mc *MetricsCollector) Uptime() time.Duration {
	return time.Since(mc.systemStartTime)
}
