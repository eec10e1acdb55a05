// Package config provides centralized configuration for brandpulse. Values
// come from defaults, an optional .env file and the process environment,
// later sources winning.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default values, overridable through .env or the environment.
const (
	DefaultPort               = "8080"
	DefaultServerReadTimeout  = 15 * time.Second
	DefaultServerWriteTimeout = 30 * time.Second
	DefaultServerIdleTimeout  = 60 * time.Second

	DefaultBusinessUTCOffset = "+05:30"

	DefaultSnapshotMemoryTTL        = 60 * time.Second
	DefaultSnapshotMemoryMaxEntries = 50000
	DefaultSnapshotSharedTTL        = 26 * time.Hour

	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisTimeout = 2 * time.Second

	DefaultDBMaxOpenConns           = 10
	DefaultDBMaxIdleConns           = 5
	DefaultDBConnMaxLifetimeMinutes = 30
	DefaultDBConnMaxIdleMinutes     = 5

	DefaultSlowQueryThreshold = 500 * time.Millisecond
	DefaultCleanupInterval    = 5 * time.Minute
	DefaultTenantRegistryPath = "config/tenants.json"
	DefaultLogDirectory       = "logs"
	DefaultLogLevel           = "info"
)

// Config is the resolved runtime configuration.
type Config struct {
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	GinMode            string
	AllowedOrigins     []string

	BusinessUTCOffset string

	SnapshotMemoryTTL        time.Duration
	SnapshotMemoryMaxEntries int
	SnapshotSharedTTL        time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTimeout  time.Duration

	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	DBConnMaxIdleMinutes     int

	SlowQueryThreshold time.Duration
	TenantRegistryPath string
	DefaultTenant      string

	CleanupInterval time.Duration
	CleanupVerbose  bool

	LogDirectory string
	LogLevel     string
	LogJSON      bool
	LogToFile    bool

	WarmOnStartupDays int
}

// Default returns the configuration with every default applied.
func Default() *Config {
	return &Config{
		Port:                     DefaultPort,
		ServerReadTimeout:        DefaultServerReadTimeout,
		ServerWriteTimeout:       DefaultServerWriteTimeout,
		ServerIdleTimeout:        DefaultServerIdleTimeout,
		GinMode:                  "debug",
		AllowedOrigins:           []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		BusinessUTCOffset:        DefaultBusinessUTCOffset,
		SnapshotMemoryTTL:        DefaultSnapshotMemoryTTL,
		SnapshotMemoryMaxEntries: DefaultSnapshotMemoryMaxEntries,
		SnapshotSharedTTL:        DefaultSnapshotSharedTTL,
		RedisAddr:                DefaultRedisAddr,
		RedisTimeout:             DefaultRedisTimeout,
		DBMaxOpenConns:           DefaultDBMaxOpenConns,
		DBMaxIdleConns:           DefaultDBMaxIdleConns,
		DBConnMaxLifetimeMinutes: DefaultDBConnMaxLifetimeMinutes,
		DBConnMaxIdleMinutes:     DefaultDBConnMaxIdleMinutes,
		SlowQueryThreshold:       DefaultSlowQueryThreshold,
		TenantRegistryPath:       DefaultTenantRegistryPath,
		CleanupInterval:          DefaultCleanupInterval,
		LogDirectory:             DefaultLogDirectory,
		LogLevel:                 DefaultLogLevel,
		LogJSON:                  true,
	}
}

// Load resolves configuration from envFile (usually ".env"; a missing file
// is not an error) and the environment.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
			}
		} else {
			log.Printf("Loading configuration overrides from %s...", envFile)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		Port:                     v.GetString("PORT"),
		ServerReadTimeout:        v.GetDuration("SERVER_READ_TIMEOUT"),
		ServerWriteTimeout:       v.GetDuration("SERVER_WRITE_TIMEOUT"),
		ServerIdleTimeout:        v.GetDuration("SERVER_IDLE_TIMEOUT"),
		GinMode:                  v.GetString("GIN_MODE"),
		AllowedOrigins:           splitList(v.GetString("ALLOWED_ORIGINS")),
		BusinessUTCOffset:        v.GetString("BUSINESS_UTC_OFFSET"),
		SnapshotMemoryTTL:        v.GetDuration("SNAPSHOT_MEMORY_TTL"),
		SnapshotMemoryMaxEntries: v.GetInt("SNAPSHOT_MEMORY_MAX_ENTRIES"),
		SnapshotSharedTTL:        v.GetDuration("SNAPSHOT_SHARED_TTL"),
		RedisAddr:                v.GetString("REDIS_ADDR"),
		RedisPassword:            v.GetString("REDIS_PASSWORD"),
		RedisDB:                  v.GetInt("REDIS_DB"),
		RedisTimeout:             v.GetDuration("REDIS_TIMEOUT"),
		DBMaxOpenConns:           v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:           v.GetInt("DB_MAX_IDLE_CONNS"),
		DBConnMaxLifetimeMinutes: v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES"),
		DBConnMaxIdleMinutes:     v.GetInt("DB_CONN_MAX_IDLE_MINUTES"),
		SlowQueryThreshold:       v.GetDuration("SLOW_QUERY_THRESHOLD"),
		TenantRegistryPath:       v.GetString("TENANT_REGISTRY_PATH"),
		DefaultTenant:            v.GetString("DEFAULT_TENANT"),
		CleanupInterval:          v.GetDuration("CLEANUP_INTERVAL"),
		CleanupVerbose:           v.GetBool("CLEANUP_VERBOSE"),
		LogDirectory:             v.GetString("LOG_DIRECTORY"),
		LogLevel:                 v.GetString("LOG_LEVEL"),
		LogJSON:                  v.GetBool("LOG_JSON"),
		LogToFile:                v.GetBool("LOG_TO_FILE"),
		WarmOnStartupDays:        v.GetInt("WARM_ON_STARTUP_DAYS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("PORT", d.Port)
	v.SetDefault("SERVER_READ_TIMEOUT", d.ServerReadTimeout)
	v.SetDefault("SERVER_WRITE_TIMEOUT", d.ServerWriteTimeout)
	v.SetDefault("SERVER_IDLE_TIMEOUT", d.ServerIdleTimeout)
	v.SetDefault("GIN_MODE", d.GinMode)
	v.SetDefault("ALLOWED_ORIGINS", strings.Join(d.AllowedOrigins, ","))
	v.SetDefault("BUSINESS_UTC_OFFSET", d.BusinessUTCOffset)
	v.SetDefault("SNAPSHOT_MEMORY_TTL", d.SnapshotMemoryTTL)
	v.SetDefault("SNAPSHOT_MEMORY_MAX_ENTRIES", d.SnapshotMemoryMaxEntries)
	v.SetDefault("SNAPSHOT_SHARED_TTL", d.SnapshotSharedTTL)
	v.SetDefault("REDIS_ADDR", d.RedisAddr)
	v.SetDefault("REDIS_PASSWORD", d.RedisPassword)
	v.SetDefault("REDIS_DB", d.RedisDB)
	v.SetDefault("REDIS_TIMEOUT", d.RedisTimeout)
	v.SetDefault("DB_MAX_OPEN_CONNS", d.DBMaxOpenConns)
	v.SetDefault("DB_MAX_IDLE_CONNS", d.DBMaxIdleConns)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", d.DBConnMaxLifetimeMinutes)
	v.SetDefault("DB_CONN_MAX_IDLE_MINUTES", d.DBConnMaxIdleMinutes)
	v.SetDefault("SLOW_QUERY_THRESHOLD", d.SlowQueryThreshold)
	v.SetDefault("TENANT_REGISTRY_PATH", d.TenantRegistryPath)
	v.SetDefault("DEFAULT_TENANT", d.DefaultTenant)
	v.SetDefault("CLEANUP_INTERVAL", d.CleanupInterval)
	v.SetDefault("CLEANUP_VERBOSE", d.CleanupVerbose)
	v.SetDefault("LOG_DIRECTORY", d.LogDirectory)
	v.SetDefault("LOG_LEVEL", d.LogLevel)
	v.SetDefault("LOG_JSON", d.LogJSON)
	v.SetDefault("LOG_TO_FILE", d.LogToFile)
	v.SetDefault("WARM_ON_STARTUP_DAYS", d.WarmOnStartupDays)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.SnapshotMemoryTTL <= 0 {
		return fmt.Errorf("SNAPSHOT_MEMORY_TTL must be positive, got %s", c.SnapshotMemoryTTL)
	}
	if c.SnapshotMemoryMaxEntries <= 0 {
		return fmt.Errorf("SNAPSHOT_MEMORY_MAX_ENTRIES must be positive, got %d", c.SnapshotMemoryMaxEntries)
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("CLEANUP_INTERVAL must be positive, got %s", c.CleanupInterval)
	}
	if c.WarmOnStartupDays < 0 {
		return fmt.Errorf("WARM_ON_STARTUP_DAYS must not be negative, got %d", c.WarmOnStartupDays)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
