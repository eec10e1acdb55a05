// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/brandpulse-go/internal/application/container"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/cleanup"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/manager"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/shared"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/tenant"
	"github.com/AtRiskMedia/brandpulse-go/internal/presentation/http/server"
	"github.com/AtRiskMedia/brandpulse-go/pkg/config"
)

const shutdownTimeout = 30 * time.Second

// Build wires the full dependency graph from cfg without starting anything.
// The caller owns the returned container and must Close its tenant manager
// and shared cache.
func Build(cfg *config.Config, logger *logging.ChanneledLogger) (*container.Container, error) {
	registry, err := tenant.LoadTenantRegistry(cfg.TenantRegistryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant registry: %w", err)
	}

	pools := tenant.NewConnectionPools(PoolSettings(cfg), cfg.SlowQueryThreshold, logger)
	tenantManager := tenant.NewManager(registry, pools, cfg.SlowQueryThreshold, logger)

	redisCache := shared.NewRedisCache(shared.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Timeout:  cfg.RedisTimeout,
	})
	cacheManager := manager.NewManager(redisCache, cfg.SnapshotMemoryTTL, cfg.SnapshotMemoryMaxEntries, logger)

	appContainer, err := container.NewContainer(cfg, logger, redisCache, cacheManager, tenantManager)
	if err != nil {
		redisCache.Close()
		tenantManager.Close()
		return nil, err
	}
	return appContainer, nil
}

// PoolSettings maps the DB_* settings onto connection pool limits.
func PoolSettings(cfg *config.Config) database.PoolSettings {
	return database.PoolSettings{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleMinutes) * time.Minute,
	}
}

// NewLogger builds the channeled logger described by cfg.
func NewLogger(cfg *config.Config) (*logging.ChanneledLogger, error) {
	loggerConfig := logging.DefaultLoggerConfig()
	loggerConfig.OutputToFile = cfg.LogToFile
	loggerConfig.LogDirectory = cfg.LogDirectory
	loggerConfig.JSONFormat = cfg.LogJSON

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	loggerConfig.DefaultLevel = level
	return logging.NewChanneledLogger(loggerConfig)
}

// Initialize performs the complete multi-tenant startup sequence
func Initialize(envFile string) error {
	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + "brandpulse" + "\033[97m" + " metrics delta engine" + "\033[0m")

	// Step 1: Resolve configuration
	log.Println("Loading configuration...")
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// Step 2: Switch to channeled logging
	logger, err := NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()
	logger.Startup().Info("Configuration loaded",
		"port", cfg.Port,
		"businessUtcOffset", cfg.BusinessUTCOffset,
		"tenantRegistry", cfg.TenantRegistryPath)

	// Step 3: Build the container
	phaseStart := time.Now()
	appContainer, err := Build(cfg, logger)
	if err != nil {
		logger.LogStartupPhase("container", time.Since(phaseStart), false, map[string]any{"error": err.Error()})
		return err
	}
	tenants := appContainer.TenantManager.ActiveTenants()
	logger.LogStartupPhase("container", time.Since(phaseStart), true, map[string]any{"activeTenants": len(tenants)})

	// Step 4: Shared cache reachability. The engine degrades to database
	// aggregation without it.
	pingCtx, cancelPing := context.WithTimeout(ctx, cfg.RedisTimeout)
	if err := appContainer.SharedCache.Ping(pingCtx); err != nil {
		logger.Startup().Warn("Shared cache unreachable, serving from databases only", "addr", cfg.RedisAddr, "error", err.Error())
	} else {
		logger.Startup().Info("Shared cache reachable", "addr", cfg.RedisAddr)
	}
	cancelPing()

	// Step 5: Pre-activate tenant databases and memory tiers
	phaseStart = time.Now()
	if err := appContainer.TenantManager.PreActivateAllTenants(ctx); err != nil {
		logger.Startup().Warn("Some tenants failed to pre-activate", "error", err.Error())
	}
	for _, tenantID := range tenants {
		if err := appContainer.CacheManager.InitializeTenant(tenantID); err != nil {
			logger.Startup().Error("Failed to initialize tenant cache", "tenantId", tenantID, "error", err.Error())
		}
	}
	logger.LogStartupPhase("tenant_activation", time.Since(phaseStart), true, map[string]any{"tenants": len(tenants)})

	// Step 6: Optional snapshot warming
	if cfg.WarmOnStartupDays > 0 {
		phaseStart = time.Now()
		today := appContainer.DeltaService.Clock().Today()
		err := appContainer.WarmingService.WarmAllTenants(ctx, tenants, today, cfg.WarmOnStartupDays)
		if err != nil {
			logger.Startup().Error("Snapshot warming failed", "error", err.Error(), "duration", time.Since(phaseStart))
		}
		logger.LogStartupPhase("snapshot_warming", time.Since(phaseStart), err == nil, map[string]any{"days": cfg.WarmOnStartupDays})
	}

	// Step 7: Start background cleanup worker
	cleanupWorker := cleanup.NewWorker(appContainer.CacheManager, cleanup.NewConfig(cfg), logger).
		WithConnectionSweeper(appContainer.TenantManager)
	go cleanupWorker.Start(ctx)
	logger.Startup().Info("Background cleanup worker started", "interval", cfg.CleanupInterval)

	// Step 8: Start HTTP server
	httpServer := server.New(cfg, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+cfg.Port)
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"activeTenants", len(tenants),
		"port", cfg.Port)

	select {
	case <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	if err := appContainer.TenantManager.Close(); err != nil {
		logger.Shutdown().Error("Error closing tenant manager", "error", err.Error())
	}
	if err := appContainer.SharedCache.Close(); err != nil {
		logger.Shutdown().Error("Error closing shared cache", "error", err.Error())
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))
	return nil
}
