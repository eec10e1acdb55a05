// Package caching provides application-wide caching and related utilities.
package caching

import (
	"sort"
	"sync"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
)

// WarmingLock ensures only one snapshot warming run is active per tenant.
type WarmingLock struct {
	mu    sync.Mutex
	locks map[metrics.TenantKey]struct{}
}

// NewWarmingLock creates a new instance of a WarmingLock.
func NewWarmingLock() *WarmingLock {
	return &WarmingLock{
		locks: make(map[metrics.TenantKey]struct{}),
	}
}

// TryLock acquires the lock of tenant without blocking. It returns false
// when a run already holds it.
func (l *WarmingLock) TryLock(tenant metrics.TenantKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.locks[tenant]; exists {
		return false
	}
	l.locks[tenant] = struct{}{}
	return true
}

// Unlock releases the lock of tenant.
func (l *WarmingLock) Unlock(tenant metrics.TenantKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, tenant)
}

// Held lists tenants currently being warmed.
func (l *WarmingLock) Held() []metrics.TenantKey {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]metrics.TenantKey, 0, len(l.locks))
	for tenant := range l.locks {
		out = append(out, tenant)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
