// Package tenant manages tenant-specific configurations and context,
// isolating multi-tenancy logic from the rest of the application.
package tenant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
)

var _ metrics.RepositoryResolver = (*Manager)(nil)

// Manager resolves tenant contexts, opening each tenant database lazily on
// first use.
type Manager struct {
	registry       *TenantRegistry
	pools          *ConnectionPools
	contexts       map[metrics.TenantKey]*Context
	contextMutexes sync.Map // Per-tenant mutexes for fine-grained locking
	globalMutex    sync.RWMutex
	slowThreshold  time.Duration
	logger         *logging.ChanneledLogger
}

// NewManager creates and initializes a new tenant manager.
func NewManager(registry *TenantRegistry, pools *ConnectionPools, slowThreshold time.Duration, logger *logging.ChanneledLogger) *Manager {
	return &Manager{
		registry:      registry,
		pools:         pools,
		contexts:      make(map[metrics.TenantKey]*Context),
		slowThreshold: slowThreshold,
		logger:        logger,
	}
}

// GetContext creates or retrieves the context of tenant. Unknown tenants
// yield ErrUnknownTenant; connection failures ErrTenantDatabaseUnavailable.
func (m *Manager) GetContext(ctx context.Context, tenantID metrics.TenantKey) (*Context, error) {
	if tc, ok := m.cachedContext(tenantID); ok {
		return tc, nil
	}

	tenantMutexInterface, _ := m.contextMutexes.LoadOrStore(tenantID, &sync.Mutex{})
	tenantMutex := tenantMutexInterface.(*sync.Mutex)

	tenantMutex.Lock()
	defer tenantMutex.Unlock()

	if tc, ok := m.cachedContext(tenantID); ok {
		return tc, nil
	}
	return m.createContext(ctx, tenantID)
}

// AggregateRepository hands out the aggregation repository of tenant.
func (m *Manager) AggregateRepository(ctx context.Context, tenantID metrics.TenantKey) (metrics.AggregateRepository, error) {
	tc, err := m.GetContext(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return tc.AggregateRepo(), nil
}

func (m *Manager) cachedContext(tenantID metrics.TenantKey) (*Context, bool) {
	m.globalMutex.RLock()
	defer m.globalMutex.RUnlock()
	tc, exists := m.contexts[tenantID]
	if !exists || tc.Database == nil || tc.Database.Conn == nil {
		return nil, false
	}
	return tc, true
}

func (m *Manager) createContext(ctx context.Context, tenantID metrics.TenantKey) (*Context, error) {
	info, ok := m.registry.Lookup(tenantID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", metrics.ErrUnknownTenant, tenantID)
	}
	if info.Status != StatusActive {
		return nil, metrics.DatabaseUnavailable(tenantID, fmt.Errorf("tenant is %s", info.Status))
	}

	start := time.Now()
	db, err := m.pools.NewDatabase(ctx, info)
	if err != nil {
		m.logger.Tenant().Error("Tenant database connection failed", "tenantId", tenantID, "error", err.Error())
		return nil, metrics.DatabaseUnavailable(tenantID, err)
	}

	tc := &Context{
		TenantID:      tenantID,
		Info:          info,
		Database:      db,
		Status:        info.Status,
		Logger:        m.logger,
		SlowThreshold: m.slowThreshold,
	}

	m.globalMutex.Lock()
	m.contexts[tenantID] = tc
	m.globalMutex.Unlock()

	m.logger.Tenant().Info("Tenant context created",
		"tenantId", tenantID,
		"database", db.GetConnectionInfo(),
		"duration", time.Since(start))
	return tc, nil
}

// PreActivateAllTenants opens the database of every active tenant. Failing
// tenants are reported together; the others stay usable.
func (m *Manager) PreActivateAllTenants(ctx context.Context) error {
	var failedTenants []metrics.TenantKey
	for _, tenantID := range m.registry.TenantIDs(StatusActive) {
		if _, err := m.GetContext(ctx, tenantID); err != nil {
			failedTenants = append(failedTenants, tenantID)
		}
	}

	if len(failedTenants) > 0 {
		return fmt.Errorf("pre-activation failed for tenants: %v", failedTenants)
	}
	return nil
}

// ActiveTenants lists tenants marked active in the registry.
func (m *Manager) ActiveTenants() []metrics.TenantKey {
	return m.registry.TenantIDs(StatusActive)
}

// Registry returns the loaded registry.
func (m *Manager) Registry() *TenantRegistry {
	return m.registry
}

// PoolInfo reports connection pool health.
func (m *Manager) PoolInfo(ctx context.Context) map[string]map[string]any {
	return m.pools.Info(ctx)
}

// CleanupStaleConnections closes pools that stopped answering pings.
func (m *Manager) CleanupStaleConnections(ctx context.Context) int {
	return m.pools.CleanupStaleConnections(ctx)
}

// Close cleans up all tenant contexts and their pools.
func (m *Manager) Close() error {
	m.globalMutex.Lock()
	for _, tc := range m.contexts {
		tc.Close()
	}
	m.contexts = make(map[metrics.TenantKey]*Context)
	m.globalMutex.Unlock()

	return m.pools.Close()
}
