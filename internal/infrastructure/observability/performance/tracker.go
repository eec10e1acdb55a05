package performance

import (
	"log/slog"
	"time"

	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
)

// Tracker hands out markers and logs operations slower than its threshold.
type Tracker struct {
	logger    *logging.ChanneledLogger
	threshold time.Duration
}

// NewTracker creates a tracker. A zero threshold disables slow-operation logs.
func NewTracker(logger *logging.ChanneledLogger, threshold time.Duration) *Tracker {
	return &Tracker{logger: logger, threshold: threshold}
}

// StartOperation creates a new performance marker for an operation
func (t *Tracker) StartOperation(operation, tenantID string) *Marker {
	return &Marker{
		Operation: operation,
		TenantID:  tenantID,
		StartTime: time.Now(),
		Success:   true,
		tracker:   t,
	}
}

func (t *Tracker) report(m *Marker) {
	if t.logger == nil {
		return
	}
	attrs := []any{
		slog.String("operation", m.Operation),
		slog.String("tenantId", m.TenantID),
		slog.Duration("duration", m.Duration),
		slog.Bool("success", m.Success),
	}
	if m.Error != "" {
		attrs = append(attrs, slog.String("error", m.Error))
	}
	if m.CacheHits > 0 {
		attrs = append(attrs, slog.Int("cacheHits", m.CacheHits))
	}
	for k, v := range m.Metadata {
		attrs = append(attrs, slog.Any(k, v))
	}

	if t.threshold > 0 && m.Duration > t.threshold {
		t.logger.Perf().Warn("Slow operation", attrs...)
		return
	}
	t.logger.Perf().Debug("Operation completed", attrs...)
}
