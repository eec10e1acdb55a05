package cleanup

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/manager"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
)

type memShared struct {
	mu     sync.Mutex
	values map[string][]byte
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

func TestPerformCleanupPurgesExpiredEntries(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cache := manager.NewManager(&memShared{values: map[string][]byte{}}, time.Minute, 10,
		logging.NewNopLogger(), stores.WithClock(clock))
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "ACME", "2024-03-14", metrics.Snapshot{TotalOrders: 1}, 0))
	require.NoError(t, cache.Put(ctx, "GLOBEX", "2024-03-14", metrics.Snapshot{TotalOrders: 2}, 0))

	worker := NewWorker(cache, &Config{CleanupInterval: time.Minute}, logging.NewNopLogger())
	assert.Equal(t, 0, worker.PerformCleanup(ctx))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, worker.PerformCleanup(ctx))
}

func TestStartStopsOnCancel(t *testing.T) {
	cache := manager.NewManager(&memShared{values: map[string][]byte{}}, time.Minute, 10, logging.NewNopLogger())
	worker := NewWorker(cache, &Config{CleanupInterval: time.Millisecond}, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestTenantReport(t *testing.T) {
	cache := manager.NewManager(&memShared{values: map[string][]byte{}}, time.Minute, 10, logging.NewNopLogger())
	require.NoError(t, cache.Put(context.Background(), "ACME", "2024-03-14", metrics.Snapshot{}, 0))

	var buf bytes.Buffer
	reporter := NewReporter(cache).WithOutput(&buf)
	reporter.WriteTenantReport("ACME")
	assert.Contains(t, buf.String(), "Tenant: ")
	assert.Contains(t, buf.String(), "snapshots:")

	assert.Contains(t, reporter.GenerateTenantReport("UNKNOWN"), "NOT INITIALIZED")
}

type countingSweeper struct{ calls int }

func (s *countingSweeper) CleanupStaleConnections(context.Context) int {
	s.calls++
	return 1
}

func TestPerformCleanupSweepsConnections(t *testing.T) {
	cache := manager.NewManager(&memShared{values: map[string][]byte{}}, time.Minute, 10, logging.NewNopLogger())
	sweeper := &countingSweeper{}
	worker := NewWorker(cache, &Config{CleanupInterval: time.Minute}, logging.NewNopLogger()).
		WithConnectionSweeper(sweeper)

	worker.PerformCleanup(context.Background())
	worker.PerformCleanup(context.Background())
	assert.Equal(t, 2, sweeper.calls)
}
