// Package manager provides centralized cache operations with proper tenant isolation
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/types"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
)

var _ interfaces.SnapshotCache = (*Manager)(nil)

// Manager provides snapshot cache operations with tenant isolation by
// delegating to the snapshot store.
type Manager struct {
	Mu            sync.RWMutex
	LastAccessed  map[metrics.TenantKey]time.Time
	snapshotStore *stores.SnapshotStore
	logger        *logging.ChanneledLogger
}

// NewManager wires a manager over a shared cache.
func NewManager(shared interfaces.SharedCache, ttl time.Duration, maxEntries int, logger *logging.ChanneledLogger, opts ...stores.SnapshotStoreOption) *Manager {
	logger.Cache().Info("Initializing cache manager", "memoryTTL", ttl, "maxEntriesPerTenant", maxEntries)

	return &Manager{
		LastAccessed:  make(map[metrics.TenantKey]time.Time),
		snapshotStore: stores.NewSnapshotStore(shared, ttl, maxEntries, logger, opts...),
		logger:        logger,
	}
}

func (m *Manager) updateTenantAccessTime(tenant metrics.TenantKey) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.LastAccessed[tenant] = time.Now().UTC()
}

// InitializeTenant prepares the memory tier of a tenant.
func (m *Manager) InitializeTenant(tenant metrics.TenantKey) error {
	start := time.Now()
	if _, err := m.snapshotStore.InitializeTenant(tenant); err != nil {
		return err
	}
	m.updateTenantAccessTime(tenant)
	m.logger.Cache().Info("Tenant cache initialized", "tenantId", tenant, "duration", time.Since(start))
	return nil
}

func (m *Manager) Get(ctx context.Context, tenant metrics.TenantKey, date metrics.CalendarDate) *metrics.Snapshot {
	m.updateTenantAccessTime(tenant)
	return m.snapshotStore.Get(ctx, tenant, date)
}

func (m *Manager) GetMany(ctx context.Context, tenant metrics.TenantKey, dates []metrics.CalendarDate) map[metrics.CalendarDate]*metrics.Snapshot {
	m.updateTenantAccessTime(tenant)
	return m.snapshotStore.GetMany(ctx, tenant, dates)
}

func (m *Manager) Put(ctx context.Context, tenant metrics.TenantKey, date metrics.CalendarDate, snap metrics.Snapshot, ttl time.Duration) error {
	return m.snapshotStore.Put(ctx, tenant, date, snap, ttl)
}

func (m *Manager) Peek(tenant metrics.TenantKey, date metrics.CalendarDate) types.Slot {
	return m.snapshotStore.Peek(tenant, date)
}

func (m *Manager) Stats(tenant metrics.TenantKey) (types.TierStats, bool) {
	return m.snapshotStore.Stats(tenant)
}

func (m *Manager) Tenants() []metrics.TenantKey {
	return m.snapshotStore.Tenants()
}

func (m *Manager) PurgeExpired(tenant metrics.TenantKey) int {
	return m.snapshotStore.PurgeExpired(tenant)
}

// RangeCacheStatus describes how much of a window the memory tier can serve.
type RangeCacheStatus struct {
	Window  metrics.TimeWindow     `json:"window"`
	Hits    []metrics.CalendarDate `json:"hits"`
	Pending []metrics.CalendarDate `json:"pending"`
	Missing []metrics.CalendarDate `json:"missing"`
}

// GetRangeCacheStatus classifies every date of window by its slot state.
func (m *Manager) GetRangeCacheStatus(tenant metrics.TenantKey, window metrics.TimeWindow) RangeCacheStatus {
	status := RangeCacheStatus{
		Window:  window,
		Hits:    []metrics.CalendarDate{},
		Pending: []metrics.CalendarDate{},
		Missing: []metrics.CalendarDate{},
	}
	for _, date := range window.Dates() {
		switch m.snapshotStore.Peek(tenant, date).(type) {
		case types.Hit:
			status.Hits = append(status.Hits, date)
		case types.Pending:
			status.Pending = append(status.Pending, date)
		default:
			status.Missing = append(status.Missing, date)
		}
	}
	return status
}
