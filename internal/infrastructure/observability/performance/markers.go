// Package performance tracks the duration and outcome of service operations
// and reports them to Prometheus and the performance log channel.
package performance

import (
	"sync"
	"time"

	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/monitoring"
)

// Marker represents a single performance measurement for an operation
type Marker struct {
	Operation string
	TenantID  string
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string
	Metadata  map[string]any
	CacheHits int

	tracker *Tracker
	mu      sync.Mutex
	done    bool
}

// Complete marks the operation as finished and records its duration.
// Calls after the first are ignored.
func (m *Marker) Complete() {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return
	}
	m.done = true
	m.Duration = time.Since(m.StartTime)
	m.mu.Unlock()

	outcome := "success"
	if !m.Success {
		outcome = "failure"
	}
	monitoring.OperationDurationSeconds.WithLabelValues(m.Operation, outcome).Observe(m.Duration.Seconds())

	if m.tracker != nil {
		m.tracker.report(m)
	}
}

// SetSuccess marks the operation as successful or failed
func (m *Marker) SetSuccess(success bool) {
	m.mu.Lock()
	m.Success = success
	m.mu.Unlock()
}

// SetError sets an error message and marks the operation as failed
func (m *Marker) SetError(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	m.Error = err.Error()
	m.Success = false
	m.mu.Unlock()
}

// AddMetadata adds key-value metadata to the marker
func (m *Marker) AddMetadata(key string, value any) {
	m.mu.Lock()
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
	m.mu.Unlock()
}

// AddCacheHit increments the cache hit counter
func (m *Marker) AddCacheHit() {
	m.mu.Lock()
	m.CacheHits++
	m.mu.Unlock()
}
