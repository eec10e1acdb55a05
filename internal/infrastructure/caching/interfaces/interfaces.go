// Package interfaces defines snapshot cache contracts, split into read and
// write sides.
package interfaces

import (
	"context"
	"time"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/types"
)

// SharedCache is the cross-process key/value store holding JSON snapshots.
// Misses are reported as nil values with a nil error.
type SharedCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns one value per key, in order, in a single round trip.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// SnapshotReader serves daily snapshots through the memory tier.
type SnapshotReader interface {
	Get(ctx context.Context, tenant metrics.TenantKey, date metrics.CalendarDate) *metrics.Snapshot
	GetMany(ctx context.Context, tenant metrics.TenantKey, dates []metrics.CalendarDate) map[metrics.CalendarDate]*metrics.Snapshot
}

// SnapshotWriter publishes freshly computed snapshots.
type SnapshotWriter interface {
	Put(ctx context.Context, tenant metrics.TenantKey, date metrics.CalendarDate, snap metrics.Snapshot, ttl time.Duration) error
}

// SnapshotCache is the full cache surface used by services.
type SnapshotCache interface {
	SnapshotReader
	SnapshotWriter
	Peek(tenant metrics.TenantKey, date metrics.CalendarDate) types.Slot
	Stats(tenant metrics.TenantKey) (types.TierStats, bool)
	Tenants() []metrics.TenantKey
	PurgeExpired(tenant metrics.TenantKey) int
}
