// Package types defines the memory tier data structures for daily KPI snapshots.
package types

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
)

// MemoryKey is the memory tier key of a tenant/date pair.
func MemoryKey(tenant metrics.TenantKey, date metrics.CalendarDate) string {
	return tenant.Lower() + ":" + string(date)
}

// SharedKey is the shared cache key of a tenant/date pair.
func SharedKey(tenant metrics.TenantKey, date metrics.CalendarDate) string {
	return "metrics:" + MemoryKey(tenant, date)
}

// Entry is a resolved snapshot and the time it entered the memory tier.
type Entry struct {
	Snapshot metrics.Snapshot
	StoredAt time.Time
}

// Fresh reports whether the entry is younger than ttl at now.
func (e *Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) < ttl
}

// Flight is an outstanding shared cache fetch. Result is written once,
// before Done is closed; a nil Result is a miss.
type Flight struct {
	Done   chan struct{}
	Result *metrics.Snapshot
}

// NewFlight returns an unresolved flight.
func NewFlight() *Flight {
	return &Flight{Done: make(chan struct{})}
}

// Resolve publishes the result and releases every waiter.
func (f *Flight) Resolve(s *metrics.Snapshot) {
	f.Result = s
	close(f.Done)
}

// TenantSnapshotCache holds the memory tier of a single tenant.
type TenantSnapshotCache struct {
	Entries *lru.Cache[metrics.CalendarDate, *Entry]
	Flights map[metrics.CalendarDate]*Flight

	Hits      int64
	Misses    int64
	Coalesced int64

	LastAccessed time.Time
	Mu           sync.Mutex
}

// NewTenantSnapshotCache creates an empty tenant tier bounded to maxEntries.
func NewTenantSnapshotCache(maxEntries int) (*TenantSnapshotCache, error) {
	entries, err := lru.New[metrics.CalendarDate, *Entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &TenantSnapshotCache{
		Entries: entries,
		Flights: make(map[metrics.CalendarDate]*Flight),
	}, nil
}

// TierStats summarises a tenant's memory tier.
type TierStats struct {
	Tenant       metrics.TenantKey `json:"tenant"`
	Entries      int               `json:"entries"`
	Pending      int               `json:"pending"`
	Hits         int64             `json:"hits"`
	Misses       int64             `json:"misses"`
	Coalesced    int64             `json:"coalesced"`
	LastAccessed time.Time         `json:"lastAccessed"`
}
