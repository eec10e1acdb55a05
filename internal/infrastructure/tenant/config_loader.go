// Package tenant handles loading and providing tenant-specific configurations.
package tenant

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/persistence/database"
)

// Tenant statuses recorded in the registry.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusReserved = "reserved"
)

// Database types a tenant may declare.
const (
	DatabaseMySQL    = "mysql"
	DatabasePostgres = "postgres"
	DatabaseTurso    = "turso"
	DatabaseSQLite3  = "sqlite3"
	DatabaseSQLite   = "sqlite"
)

// TenantRegistry holds the global tenant configuration
type TenantRegistry struct {
	Tenants map[metrics.TenantKey]TenantInfo `json:"tenants"`
}

// TenantInfo holds tenant metadata and connection settings
type TenantInfo struct {
	TenantID     metrics.TenantKey `json:"tenantId"`
	Status       string            `json:"status"`       // "inactive", "reserved", "active"
	DatabaseType string            `json:"databaseType"` // "mysql", "postgres", "turso", "sqlite3", "sqlite"
	DSN          string            `json:"dsn,omitempty"`
	TursoURL     string            `json:"tursoUrl,omitempty"`
	TursoToken   string            `json:"tursoToken,omitempty"`
	SQLitePath   string            `json:"sqlitePath,omitempty"`
}

// LoadTenantRegistry loads the tenant registry from path. A missing file
// yields an empty registry.
func LoadTenantRegistry(path string) (*TenantRegistry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &TenantRegistry{Tenants: map[metrics.TenantKey]TenantInfo{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tenant registry: %w", err)
	}

	var raw struct {
		Tenants map[string]TenantInfo `json:"tenants"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tenant registry: %w", err)
	}

	registry := &TenantRegistry{Tenants: make(map[metrics.TenantKey]TenantInfo, len(raw.Tenants))}
	for id, info := range raw.Tenants {
		key := metrics.NormalizeTenant(id)
		info.TenantID = key
		if info.Status == "" {
			info.Status = StatusActive
		}
		registry.Tenants[key] = info
	}
	return registry, nil
}

// SaveTenantRegistry writes the registry to path, creating its directory.
func SaveTenantRegistry(path string, registry *TenantRegistry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}
	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}

// Lookup returns the registry entry of tenant.
func (r *TenantRegistry) Lookup(tenant metrics.TenantKey) (TenantInfo, bool) {
	info, ok := r.Tenants[tenant]
	return info, ok
}

// TenantIDs lists registered tenants with the given status, or all tenants
// when status is empty, sorted.
func (r *TenantRegistry) TenantIDs(status string) []metrics.TenantKey {
	out := make([]metrics.TenantKey, 0, len(r.Tenants))
	for id, info := range r.Tenants {
		if status == "" || info.Status == status {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ConnectionParams resolves the driver and data source name of a tenant.
func (i TenantInfo) ConnectionParams() (driver, dsn string, err error) {
	switch i.DatabaseType {
	case DatabaseMySQL, "mariadb", "":
		if i.DSN == "" {
			return "", "", fmt.Errorf("tenant %s: mysql dsn is empty", i.TenantID)
		}
		dsn, err := database.MySQLDSN(i.DSN)
		return database.DriverMySQL, dsn, err
	case DatabasePostgres, "postgresql":
		if i.DSN == "" {
			return "", "", fmt.Errorf("tenant %s: postgres dsn is empty", i.TenantID)
		}
		return database.DriverPostgres, i.DSN, nil
	case DatabaseTurso:
		if i.TursoURL == "" {
			return "", "", fmt.Errorf("tenant %s: turso url is empty", i.TenantID)
		}
		return database.DriverLibSQL, database.TursoDSN(i.TursoURL, i.TursoToken), nil
	case DatabaseSQLite3:
		return database.DriverSQLite3, i.sqlitePath(), nil
	case DatabaseSQLite:
		return database.DriverSQLite, i.sqlitePath(), nil
	}
	return "", "", fmt.Errorf("tenant %s: unsupported database type %q", i.TenantID, i.DatabaseType)
}

func (i TenantInfo) sqlitePath() string {
	if i.SQLitePath != "" {
		return i.SQLitePath
	}
	return i.DSN
}
