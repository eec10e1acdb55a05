// Package tenant provides database abstraction for multi-tenant support.
package tenant

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/persistence/database"
)

// Database is a pooled connection owned by one tenant.
type Database struct {
	Conn     *database.DB
	TenantID string
	Type     string
	isPooled bool
}

// ConnectionPools shares one pool per data source across tenant contexts.
type ConnectionPools struct {
	mu       sync.RWMutex
	pools    map[string]*database.DB
	settings database.PoolSettings
	slow     time.Duration
	logger   *logging.ChanneledLogger
}

// NewConnectionPools creates an empty pool set.
func NewConnectionPools(settings database.PoolSettings, slow time.Duration, logger *logging.ChanneledLogger) *ConnectionPools {
	return &ConnectionPools{
		pools:    make(map[string]*database.DB),
		settings: settings,
		slow:     slow,
		logger:   logger,
	}
}

// NewDatabase opens, or reuses, the pool of info.
func (p *ConnectionPools) NewDatabase(ctx context.Context, info TenantInfo) (*Database, error) {
	driver, dsn, err := info.ConnectionParams()
	if err != nil {
		return nil, err
	}
	poolKey := driver + ":" + dsn

	p.mu.Lock()
	defer p.mu.Unlock()

	if pooled, exists := p.pools[poolKey]; exists {
		if err := pooled.PingContext(ctx); err == nil {
			return &Database{Conn: pooled, TenantID: info.TenantID.String(), Type: info.DatabaseType, isPooled: true}, nil
		}
		pooled.Close()
		delete(p.pools, poolKey)
	}

	conn, err := database.NewConnectionWithLogger(ctx, driver, dsn, p.settings, p.logger, p.slow)
	if err != nil {
		return nil, fmt.Errorf("tenant %s degraded: %w", info.TenantID, err)
	}
	p.pools[poolKey] = conn

	return &Database{Conn: conn, TenantID: info.TenantID.String(), Type: info.DatabaseType, isPooled: true}, nil
}

// Info reports the health and usage of every pool.
func (p *ConnectionPools) Info(ctx context.Context) map[string]map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()

	info := make(map[string]map[string]any, len(p.pools))
	for key, conn := range p.pools {
		stats := conn.Stats()
		info[conn.Driver+"#"+shortKey(key)] = map[string]any{
			"healthy":      conn.PingContext(ctx) == nil,
			"maxOpen":      stats.MaxOpenConnections,
			"open":         stats.OpenConnections,
			"inUse":        stats.InUse,
			"idle":         stats.Idle,
			"waitCount":    stats.WaitCount,
			"waitDuration": stats.WaitDuration.String(),
		}
	}
	return info
}

// CleanupStaleConnections closes pools that no longer answer a ping.
func (p *ConnectionPools) CleanupStaleConnections(ctx context.Context) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	for key, conn := range p.pools {
		if err := conn.PingContext(ctx); err != nil {
			conn.Close()
			delete(p.pools, key)
			removed++
			p.logger.Database().Warn("Removed dead connection pool", "driverName", conn.Driver, "error", err.Error())
		}
	}
	return removed
}

// Close closes every pool.
func (p *ConnectionPools) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for key, conn := range p.pools {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.pools, key)
	}
	return firstErr
}

// Close releases a non-pooled connection. Pooled connections stay open.
func (db *Database) Close() error {
	if db.isPooled {
		return nil
	}
	if db.Conn != nil {
		return db.Conn.Close()
	}
	return nil
}

func (db *Database) GetConnectionInfo() string {
	poolStatus := ""
	if db.isPooled {
		poolStatus = " (pooled)"
	}
	return fmt.Sprintf("%s (tenant: %s)%s", db.Type, db.TenantID, poolStatus)
}

// shortKey hides credentials of a pool key.
func shortKey(key string) string {
	h := fnv.New32a()
	h.Write([]byte(key))
	return fmt.Sprintf("%08x", h.Sum32())
}
