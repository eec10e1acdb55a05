// Package stores provides concrete cache store implementations
package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/types"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/monitoring"
)

// SnapshotStore is the in-process tier in front of the shared cache. It
// keeps at most one shared cache fetch outstanding per tenant/date; every
// concurrent reader of that key receives the same result.
type SnapshotStore struct {
	tenantCaches map[metrics.TenantKey]*types.TenantSnapshotCache
	mu           sync.RWMutex

	shared     interfaces.SharedCache
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	logger     *logging.ChanneledLogger
}

// SnapshotStoreOption customises a SnapshotStore.
type SnapshotStoreOption func(*SnapshotStore)

// WithClock overrides the clock used for TTL checks.
func WithClock(now func() time.Time) SnapshotStoreOption {
	return func(s *SnapshotStore) { s.now = now }
}

// NewSnapshotStore creates a memory tier over shared with the given TTL and
// per-tenant entry bound.
func NewSnapshotStore(shared interfaces.SharedCache, ttl time.Duration, maxEntries int, logger *logging.ChanneledLogger, opts ...SnapshotStoreOption) *SnapshotStore {
	s := &SnapshotStore{
		tenantCaches: make(map[metrics.TenantKey]*types.TenantSnapshotCache),
		shared:       shared,
		ttl:          ttl,
		maxEntries:   maxEntries,
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ interfaces.SnapshotCache = (*SnapshotStore)(nil)

// InitializeTenant creates the tier of a tenant if it does not exist yet.
func (s *SnapshotStore) InitializeTenant(tenant metrics.TenantKey) (*types.TenantSnapshotCache, error) {
	s.mu.RLock()
	cache, ok := s.tenantCaches[tenant]
	s.mu.RUnlock()
	if ok {
		return cache, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cache, ok := s.tenantCaches[tenant]; ok {
		return cache, nil
	}
	cache, err := types.NewTenantSnapshotCache(s.maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot tier for %s: %w", tenant, err)
	}
	s.tenantCaches[tenant] = cache
	return cache, nil
}

// GetTenantCache safely retrieves a tenant's tier
func (s *SnapshotStore) GetTenantCache(tenant metrics.TenantKey) (*types.TenantSnapshotCache, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cache, ok := s.tenantCaches[tenant]
	return cache, ok
}

// Get returns the snapshot of tenant on date, or nil on a miss. Failures of
// the shared cache are logged and reported as misses.
func (s *SnapshotStore) Get(ctx context.Context, tenant metrics.TenantKey, date metrics.CalendarDate) *metrics.Snapshot {
	start := time.Now()
	cache, err := s.InitializeTenant(tenant)
	if err != nil {
		s.logger.Cache().Error("Snapshot tier unavailable", "tenantId", tenant, "error", err)
		return nil
	}

	cache.Mu.Lock()
	cache.LastAccessed = s.now()
	if snap, ok := s.freshLocked(cache, date); ok {
		cache.Hits++
		cache.Mu.Unlock()
		monitoring.SnapshotLookupsTotal.WithLabelValues("hit").Inc()
		s.logger.LogCacheOperation("get", types.MemoryKey(tenant, date), true, time.Since(start), tenant.String())
		return &snap
	}
	if flight, ok := cache.Flights[date]; ok {
		cache.Coalesced++
		cache.Mu.Unlock()
		monitoring.SnapshotLookupsTotal.WithLabelValues("coalesced").Inc()
		return await(flight)
	}
	flight := types.NewFlight()
	cache.Flights[date] = flight
	cache.Misses++
	cache.Mu.Unlock()
	monitoring.SnapshotLookupsTotal.WithLabelValues("miss").Inc()

	var snap *metrics.Snapshot
	defer func() { s.resolve(cache, date, flight, snap) }()

	snap = s.fetchOne(context.WithoutCancel(ctx), tenant, date)
	s.logger.LogCacheOperation("get", types.SharedKey(tenant, date), snap != nil, time.Since(start), tenant.String())
	return copySnapshot(snap)
}

// GetMany resolves several dates of one tenant. Dates missing from the
// memory tier are fetched with a single MGET; dates already being fetched
// are awaited. Only found dates appear in the result.
func (s *SnapshotStore) GetMany(ctx context.Context, tenant metrics.TenantKey, dates []metrics.CalendarDate) map[metrics.CalendarDate]*metrics.Snapshot {
	start := time.Now()
	result := make(map[metrics.CalendarDate]*metrics.Snapshot, len(dates))
	cache, err := s.InitializeTenant(tenant)
	if err != nil {
		s.logger.Cache().Error("Snapshot tier unavailable", "tenantId", tenant, "error", err)
		return result
	}

	waits := make(map[metrics.CalendarDate]*types.Flight)
	owned := make(map[metrics.CalendarDate]*types.Flight)
	var misses []metrics.CalendarDate

	cache.Mu.Lock()
	cache.LastAccessed = s.now()
	for _, date := range dates {
		if _, seen := result[date]; seen {
			continue
		}
		if _, seen := waits[date]; seen {
			continue
		}
		if _, seen := owned[date]; seen {
			continue
		}
		if snap, ok := s.freshLocked(cache, date); ok {
			cache.Hits++
			monitoring.SnapshotLookupsTotal.WithLabelValues("hit").Inc()
			result[date] = &snap
			continue
		}
		if flight, ok := cache.Flights[date]; ok {
			cache.Coalesced++
			monitoring.SnapshotLookupsTotal.WithLabelValues("coalesced").Inc()
			waits[date] = flight
			continue
		}
		flight := types.NewFlight()
		cache.Flights[date] = flight
		cache.Misses++
		monitoring.SnapshotLookupsTotal.WithLabelValues("miss").Inc()
		owned[date] = flight
		misses = append(misses, date)
	}
	cache.Mu.Unlock()

	if len(misses) > 0 {
		fetched := make(map[metrics.CalendarDate]*metrics.Snapshot, len(misses))
		func() {
			defer func() {
				for _, date := range misses {
					s.resolve(cache, date, owned[date], fetched[date])
				}
			}()
			for date, snap := range s.fetchMany(context.WithoutCancel(ctx), tenant, misses) {
				fetched[date] = snap
			}
		}()
		for date, snap := range fetched {
			if snap != nil {
				result[date] = copySnapshot(snap)
			}
		}
	}

	for date, flight := range waits {
		if snap := await(flight); snap != nil {
			result[date] = snap
		}
	}

	s.logger.Cache().Debug("Snapshot batch resolved",
		"tenantId", tenant,
		"requested", len(dates),
		"found", len(result),
		"fetched", len(misses),
		"awaited", len(waits),
		"duration", time.Since(start))
	return result
}

// Put writes a snapshot to the shared cache and refreshes the memory tier.
func (s *SnapshotStore) Put(ctx context.Context, tenant metrics.TenantKey, date metrics.CalendarDate, snap metrics.Snapshot, ttl time.Duration) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", types.SharedKey(tenant, date), err)
	}
	if err := s.shared.Set(ctx, types.SharedKey(tenant, date), payload, ttl); err != nil {
		return fmt.Errorf("%w: %v", metrics.ErrCacheUnavailable, err)
	}

	cache, err := s.InitializeTenant(tenant)
	if err != nil {
		return err
	}
	cache.Mu.Lock()
	cache.Entries.Add(date, &types.Entry{Snapshot: snap, StoredAt: s.now()})
	cache.Mu.Unlock()
	return nil
}

// Peek reports the slot state of a key without touching the shared cache.
func (s *SnapshotStore) Peek(tenant metrics.TenantKey, date metrics.CalendarDate) types.Slot {
	cache, ok := s.GetTenantCache(tenant)
	if !ok {
		return types.Empty{}
	}
	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	if flight, ok := cache.Flights[date]; ok {
		return types.Pending{Flight: flight}
	}
	if entry, ok := cache.Entries.Peek(date); ok && entry.Fresh(s.now(), s.ttl) {
		return types.Hit{Snapshot: entry.Snapshot, StoredAt: entry.StoredAt}
	}
	return types.Empty{}
}

// Invalidate drops the memory tier entry of a key.
func (s *SnapshotStore) Invalidate(tenant metrics.TenantKey, date metrics.CalendarDate) {
	cache, ok := s.GetTenantCache(tenant)
	if !ok {
		return
	}
	cache.Mu.Lock()
	cache.Entries.Remove(date)
	cache.Mu.Unlock()
}

// PurgeExpired removes expired entries of a tenant and returns how many
// were dropped. Pending flights are never touched.
func (s *SnapshotStore) PurgeExpired(tenant metrics.TenantKey) int {
	cache, ok := s.GetTenantCache(tenant)
	if !ok {
		return 0
	}
	now := s.now()

	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	purged := 0
	for _, date := range cache.Entries.Keys() {
		entry, ok := cache.Entries.Peek(date)
		if ok && !entry.Fresh(now, s.ttl) {
			cache.Entries.Remove(date)
			purged++
		}
	}
	return purged
}

// Stats summarises the tier of a tenant.
func (s *SnapshotStore) Stats(tenant metrics.TenantKey) (types.TierStats, bool) {
	cache, ok := s.GetTenantCache(tenant)
	if !ok {
		return types.TierStats{}, false
	}
	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	return types.TierStats{
		Tenant:       tenant,
		Entries:      cache.Entries.Len(),
		Pending:      len(cache.Flights),
		Hits:         cache.Hits,
		Misses:       cache.Misses,
		Coalesced:    cache.Coalesced,
		LastAccessed: cache.LastAccessed,
	}, true
}

// Tenants lists every tenant with an initialised tier, sorted.
func (s *SnapshotStore) Tenants() []metrics.TenantKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]metrics.TenantKey, 0, len(s.tenantCaches))
	for tenant := range s.tenantCaches {
		out = append(out, tenant)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// freshLocked returns the entry of date if it is within TTL, evicting it
// otherwise. The tenant mutex must be held.
func (s *SnapshotStore) freshLocked(cache *types.TenantSnapshotCache, date metrics.CalendarDate) (metrics.Snapshot, bool) {
	entry, ok := cache.Entries.Get(date)
	if !ok {
		return metrics.Snapshot{}, false
	}
	if !entry.Fresh(s.now(), s.ttl) {
		cache.Entries.Remove(date)
		return metrics.Snapshot{}, false
	}
	return entry.Snapshot, true
}

// resolve stores a found snapshot, retires the flight and wakes waiters.
func (s *SnapshotStore) resolve(cache *types.TenantSnapshotCache, date metrics.CalendarDate, flight *types.Flight, snap *metrics.Snapshot) {
	cache.Mu.Lock()
	if cache.Flights[date] == flight {
		delete(cache.Flights, date)
	}
	if snap != nil {
		cache.Entries.Add(date, &types.Entry{Snapshot: *snap, StoredAt: s.now()})
	}
	cache.Mu.Unlock()
	flight.Resolve(snap)
}

func (s *SnapshotStore) fetchOne(ctx context.Context, tenant metrics.TenantKey, date metrics.CalendarDate) *metrics.Snapshot {
	key := types.SharedKey(tenant, date)
	monitoring.SharedCacheRoundTripsTotal.WithLabelValues("get").Inc()
	raw, err := s.shared.Get(ctx, key)
	if err != nil {
		s.degraded(tenant, key, fmt.Errorf("%w: %v", metrics.ErrCacheUnavailable, err))
		return nil
	}
	return s.decode(tenant, key, raw)
}

func (s *SnapshotStore) fetchMany(ctx context.Context, tenant metrics.TenantKey, dates []metrics.CalendarDate) map[metrics.CalendarDate]*metrics.Snapshot {
	keys := make([]string, len(dates))
	for i, date := range dates {
		keys[i] = types.SharedKey(tenant, date)
	}

	monitoring.SharedCacheRoundTripsTotal.WithLabelValues("mget").Inc()
	values, err := s.shared.MGet(ctx, keys)
	out := make(map[metrics.CalendarDate]*metrics.Snapshot, len(dates))
	if err != nil {
		s.degraded(tenant, fmt.Sprintf("%d keys", len(keys)), fmt.Errorf("%w: %v", metrics.ErrCacheUnavailable, err))
		return out
	}
	for i, date := range dates {
		if i < len(values) {
			out[date] = s.decode(tenant, keys[i], values[i])
		}
	}
	return out
}

func (s *SnapshotStore) decode(tenant metrics.TenantKey, key string, raw []byte) *metrics.Snapshot {
	if raw == nil {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		s.degraded(tenant, key, fmt.Errorf("%w: %v", metrics.ErrMalformedCacheValue, err))
		return nil
	}
	if !hasSnapshotField(fields) {
		s.degraded(tenant, key, fmt.Errorf("%w: no snapshot fields in %.64q", metrics.ErrMalformedCacheValue, string(raw)))
		return nil
	}

	var snap metrics.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.degraded(tenant, key, fmt.Errorf("%w: %v", metrics.ErrMalformedCacheValue, err))
		return nil
	}
	return &snap
}

// hasSnapshotField reports whether a decoded object names at least one
// metric. Snapshot JSON fields are the metric names.
func hasSnapshotField(fields map[string]json.RawMessage) bool {
	for _, m := range metrics.AllMetrics {
		if _, ok := fields[string(m)]; ok {
			return true
		}
	}
	return false
}

func (s *SnapshotStore) degraded(tenant metrics.TenantKey, key string, err error) {
	kind := "unavailable"
	if errors.Is(err, metrics.ErrMalformedCacheValue) {
		kind = "malformed"
	}
	monitoring.SharedCacheErrorsTotal.WithLabelValues(kind).Inc()
	s.logger.Cache().Warn("Shared cache read degraded to miss",
		"tenantId", tenant,
		"key", key,
		"kind", kind,
		"error", err)
}

// await blocks until flight resolves. Waiters are never cancelled; the
// fetch they share runs to completion regardless of its callers.
func await(flight *types.Flight) *metrics.Snapshot {
	<-flight.Done
	return copySnapshot(flight.Result)
}

func copySnapshot(s *metrics.Snapshot) *metrics.Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
