package utils

import (
	"sync"
	"time"
)

// Tracks performance metrics across the system
type MetricsCollector struct {
	mu           sync.RWMutex
	requestCount uint64
	errorCount   uint64

	// Maps operation name to list of latencies in nanoseconds
	operationTimes map[string][]int64

	systemStartTime time.Time
}

// OperationStats summarizes the recorded latencies of one operation.
type OperationStats struct {
	Count   int           `json:"count"`
	Average time.Duration `json:"averageNs"`
	Max     time.Duration `json:"maxNs"`
}

// MetricsSnapshot is a point-in-time copy of the collector.
type MetricsSnapshot struct {
	Uptime     time.Duration             `json:"uptimeNs"`
	Requests   uint64                    `json:"requests"`
	Errors     uint64                    `json:"errors"`
	Operations map[string]OperationStats `json:"operations"`
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		operationTimes:  make(map[string][]int64),
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

	mc.operationTimes[operationName] = append(
		mc.operationTimes[operationName],
		duration.Nanoseconds(),
	)
}

// Track records the latency of an operation started at start and counts it
// as an error when err is non-nil. Meant to be deferred.
func (mc *MetricsCollector) Track(operationName string, start time.Time, err *error) {
	if mc == nil {
		return
	}
	mc.AddOperationLatency(operationName, time.Since(start))
	if err != nil && *err != nil {
		mc.IncrementErrors()
	}
}

func (mc *MetricsCollector) Snapshot() MetricsSnapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	snap := MetricsSnapshot{
		Uptime:     time.Since(mc.systemStartTime),
		Requests:   mc.requestCount,
		Errors:     mc.errorCount,
		Operations: make(map[string]OperationStats, len(mc.operationTimes)),
	}
	for name, latencies := range mc.operationTimes {
		var total, max int64
		for _, ns := range latencies {
			total += ns
			if ns > max {
				max = ns
			}
		}
		stats := OperationStats{Count: len(latencies), Max: time.Duration(max)}
		if len(latencies) > 0 {
			stats.Average = time.Duration(total / int64(len(latencies)))
		}
		snap.Operations[name] = stats
	}
	return snap
}
