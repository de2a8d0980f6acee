// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	Failures  int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count" yaml:"count"`
	Failures    int64   `json:"failures" yaml:"failures"`
	TotalTimeMs int64   `json:"total_time_ms" yaml:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms" yaml:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms" yaml:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms" yaml:"max_time_ms"`
}

// Snapshot represents the session statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64            `json:"uptime_seconds" yaml:"uptime_seconds"`
	Humanize      *OperationSnapshot `json:"humanize,omitempty" yaml:"humanize,omitempty"`
	Health        *OperationSnapshot `json:"health,omitempty" yaml:"health,omitempty"`
	TokenRefresh  *OperationSnapshot `json:"token_refresh,omitempty" yaml:"token_refresh,omitempty"`
	Outcomes      map[string]int64   `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}

// Operation names for the collector.
const (
	OpHumanize     = "humanize"
	OpHealth       = "health"
	OpTokenRefresh = "token_refresh"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
	outcomes  map[string]int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		outcomes:  make(map[string]int64),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation. A non-nil err counts as a failure.
func (c *Collector) RecordTiming(op string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration
	if err != nil {
		m.Failures++
	}

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordOutcome counts a terminal submission outcome by name.
func (c *Collector) RecordOutcome(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[kind]++
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	return &OperationSnapshot{
		Count:       m.Count,
		Failures:    m.Failures,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var outcomes map[string]int64
	if len(c.outcomes) > 0 {
		outcomes = make(map[string]int64, len(c.outcomes))
		for k, v := range c.outcomes {
			outcomes[k] = v
		}
	}

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Humanize:      snapshotOp(c.ops[OpHumanize]),
		Health:        snapshotOp(c.ops[OpHealth]),
		TokenRefresh:  snapshotOp(c.ops[OpTokenRefresh]),
		Outcomes:      outcomes,
	}
}
