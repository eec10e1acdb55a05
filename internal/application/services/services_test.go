package services

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/manager"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/performance"
)

const acme = metrics.TenantKey("ACME")

// memShared is a goroutine-safe SharedCache.
type memShared struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newMemShared() *memShared {
	return &memShared{values: make(map[string][]byte)}
}

func (m *memShared) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memShared) MGet(_ context.Context, keys []string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.values[k]
	}
	return out, nil
}

func (m *memShared) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memShared) store(t *testing.T, tenant metrics.TenantKey, date metrics.CalendarDate, snap metrics.Snapshot) {
	t.Helper()
	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	require.NoError(t, m.Set(context.Background(), "metrics:"+tenant.Lower()+":"+date.String(), raw, 0))
}

// fakeRepo serves totals from in-memory daily and hourly tables.
type fakeRepo struct {
	mu      sync.Mutex
	daily   map[metrics.CalendarDate]metrics.Totals
	hourly  map[metrics.CalendarDate]map[int]metrics.Totals
	err     error
	queries []metrics.PeriodQuery
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		daily:  make(map[metrics.CalendarDate]metrics.Totals),
		hourly: make(map[metrics.CalendarDate]map[int]metrics.Totals),
	}
}

func (r *fakeRepo) record(q metrics.PeriodQuery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	return r.err
}

func (r *fakeRepo) recorded() []metrics.PeriodQuery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]metrics.PeriodQuery(nil), r.queries...)
}

func (r *fakeRepo) PeriodTotals(_ context.Context, q metrics.PeriodQuery) (metrics.Totals, error) {
	if err := r.record(q); err != nil {
		return metrics.Totals{}, err
	}
	var total metrics.Totals
	for _, d := range q.Window.Dates() {
		total = total.Add(r.daily[d])
	}
	return total, nil
}

func (r *fakeRepo) DailyTotals(_ context.Context, q metrics.PeriodQuery) ([]metrics.DayTotals, error) {
	if err := r.record(q); err != nil {
		return nil, err
	}
	var out []metrics.DayTotals
	for _, d := range q.Window.Dates() {
		out = append(out, metrics.DayTotals{Date: d, Totals: r.daily[d]})
	}
	return out, nil
}

func (r *fakeRepo) HourlyTotals(_ context.Context, date metrics.CalendarDate, cutoffHour int) ([]metrics.HourTotals, error) {
	if err := r.record(metrics.PeriodQuery{Window: metrics.TimeWindow{Start: date, End: date}}); err != nil {
		return nil, err
	}
	out := make([]metrics.HourTotals, 0, cutoffHour+1)
	for h := 0; h <= cutoffHour; h++ {
		out = append(out, metrics.HourTotals{Hour: h, Totals: r.hourly[date][h]})
	}
	return out, nil
}

type fakeResolver struct {
	repo  metrics.AggregateRepository
	err   error
	calls atomic.Int32
}

func (f *fakeResolver) AggregateRepository(_ context.Context, _ metrics.TenantKey) (metrics.AggregateRepository, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.repo, nil
}

var businessZone = time.FixedZone("UTC+05:30", 5*3600+30*60)

// fixedClock pins "now" to 2024-03-15 10:45:30 business time.
func fixedClock() metrics.BusinessClock {
	now := time.Date(2024, 3, 15, 10, 45, 30, 0, businessZone)
	return metrics.BusinessClock{Location: businessZone, Now: func() time.Time { return now }}
}

type harness struct {
	shared   *memShared
	cache    *manager.Manager
	repo     *fakeRepo
	resolver *fakeResolver
	lock     *caching.WarmingLock
	delta    *MetricsDeltaService
	warmer   *SnapshotWarmingService
}

func newHarness() *harness {
	logger := logging.NewNopLogger()
	tracker := performance.NewTracker(logger, 0)
	shared := newMemShared()
	cache := manager.NewManager(shared, time.Minute, 100, logger)
	repo := newFakeRepo()
	resolver := &fakeResolver{repo: repo}
	lock := caching.NewWarmingLock()

	return &harness{
		shared:   shared,
		cache:    cache,
		repo:     repo,
		resolver: resolver,
		lock:     lock,
		delta:    NewMetricsDeltaService(cache, resolver, fixedClock(), logger, tracker),
		warmer:   NewSnapshotWarmingService(resolver, cache, lock, time.Hour, logger, tracker),
	}
}
