// FILE: strategic-logger/internal/dispatch/monitor.go
package dispatch

import (
	"sync"
	"time"
)

// OperationStats aggregates latency for one named operation.
type OperationStats struct {
	Count         uint64
	TotalDuration time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	ErrorCount    uint64
}

// Average returns the mean duration, zero when nothing was recorded.
func (s OperationStats) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Count)
}

// Monitor measures per-operation dispatch latency. Snapshot returns
// copies; readers never see a partially updated record.
type Monitor struct {
	mu  sync.RWMutex
	ops map[string]OperationStats
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{ops: make(map[string]OperationStats)}
}

// Record adds one measurement for the named operation.
func (m *Monitor) Record(operation string, duration time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.ops[operation]
	stats.Count++
	stats.TotalDuration += duration
	if stats.Count == 1 || duration < stats.MinDuration {
		stats.MinDuration = duration
	}
	if duration > stats.MaxDuration {
		stats.MaxDuration = duration
	}
	if failed {
		stats.ErrorCount++
	}
	m.ops[operation] = stats
}

// Snapshot returns a read-only copy of all operation stats.
func (m *Monitor) Snapshot() map[string]OperationStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[string]OperationStats, len(m.ops))
	for name, stats := range m.ops {
		snapshot[name] = stats
	}
	return snapshot
}
