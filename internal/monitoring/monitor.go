package monitoring

import (
	"sync"
	"time"
)

// Monitor keeps in-process counters for the stats endpoint
type Monitor struct {
	metrics      map[string]interface{}
	counters     map[string]int64
	metricsMutex sync.RWMutex
	startTime    time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:   make(map[string]interface{}),
		counters:  make(map[string]int64),
		startTime: time.Now(),
	}
}

// RecordMetric records a metric value
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// Increment adds delta to a named counter
func (m *Monitor) Increment(name string, delta int64) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.counters[name] += delta
}

// Counter returns the current value of a counter
func (m *Monitor) Counter(name string) int64 {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()
	return m.counters[name]
}

// GetMetric returns a specific metric value
func (m *Monitor) GetMetric(name string) (interface{}, bool) {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()
	if v, ok := m.counters[name]; ok {
		return v, true
	}
	value, exists := m.metrics[name]
	return value, exists
}

// GetMetrics returns all current metrics and counters
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	metrics := make(map[string]interface{}, len(m.metrics)+len(m.counters)+1)
	for k, v := range m.metrics {
		metrics[k] = v
	}
	for k, v := range m.counters {
		metrics[k] = v
	}

	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()

	return metrics
}

// Reset clears all metrics
func (m *Monitor) Reset() {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics = make(map[string]interface{})
	m.counters = make(map[string]int64)
}

// RecordTurn records one handled chat message under an agent prefix
func (m *Monitor) RecordTurn(agent string, degraded bool, elapsed time.Duration) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()

	prefix := "agent_" + agent + "_"
	m.counters["messages_total"]++
	m.counters[prefix+"messages"]++
	if degraded {
		m.counters["degraded_total"]++
		m.counters[prefix+"degraded"]++
	}
	m.metrics[prefix+"last_latency_ms"] = elapsed.Milliseconds()
	m.metrics["last_message_at"] = time.Now().Format(time.RFC3339)
}
