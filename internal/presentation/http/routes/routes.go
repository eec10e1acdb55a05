// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AtRiskMedia/brandpulse-go/internal/application/container"
	"github.com/AtRiskMedia/brandpulse-go/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/brandpulse-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.AccessLogMiddleware(container.Logger))
	r.Use(middleware.CORSMiddleware(container.Config.AllowedOrigins))

	metricsHandlers := handlers.NewMetricsHandlers(container.DeltaService, container.Logger, container.PerfTracker)
	cacheHandlers := handlers.NewCacheHandlers(
		container.CacheManager,
		container.DeltaService,
		container.WarmingService,
		container.WarmingLock,
		container.Logger,
		container.PerfTracker,
	)
	systemHandlers := handlers.NewSystemHandlers(container.SharedCache, container.TenantManager, container.Logger)

	r.GET("/health", systemHandlers.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/api/v1/admin")
	{
		admin.GET("/logs/levels", systemHandlers.GetLogLevels)
		admin.POST("/logs/levels", systemHandlers.SetLogLevel)
	}

	// API routes with tenant middleware
	api := r.Group("/api/v1")
	api.Use(middleware.TenantMiddleware(container.Detector, container.Logger, container.PerfTracker))
	{
		metricsAPI := api.Group("/metrics")
		{
			metricsAPI.GET("/delta", metricsHandlers.GetDelta)
			metricsAPI.GET("/deltas", metricsHandlers.GetDeltas)
			metricsAPI.GET("/trend", metricsHandlers.GetTrend)
		}

		cacheAPI := api.Group("/cache")
		{
			cacheAPI.GET("/status", cacheHandlers.GetCacheStatus)
			cacheAPI.POST("/warm", cacheHandlers.WarmCache)
		}
	}

	return r
}
