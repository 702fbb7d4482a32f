package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/search-analytics/internal/config"
	"github.com/jonesrussell/search-analytics/internal/handler"
	"github.com/jonesrussell/search-analytics/internal/metrics"
	"github.com/jonesrussell/search-analytics/internal/middleware"
)

// Handlers bundles the route handlers wired in SetupRoutes.
type Handlers struct {
	Proxy     *handler.ProxyHandler
	Analytics *handler.AnalyticsHandler
	Admin     *handler.AdminHandler
	Health    *handler.HealthHandler
}

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, h Handlers, m *metrics.Metrics, rl config.RateLimitConfig) {
	router.GET("/health", h.Health.HealthCheck)
	router.GET("/health/ready", h.Health.ReadinessCheck)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	v1 := router.Group("/api/v1")

	// Search proxy: bots are served but their traffic is not recorded.
	search := v1.Group("")
	search.Use(middleware.BotFilter())
	search.GET("/:endpoint", h.Proxy.HandleEndpoint)

	// Direct analytics ingestion, rate limited per IP.
	analytics := v1.Group("/analytics")
	analytics.Use(middleware.RateLimiter(float64(rl.RequestsPerSecond), rl.Burst))
	analytics.POST("/query", h.Analytics.RecordQuery)
	analytics.POST("/click", h.Analytics.RecordClick)
	analytics.POST("/clicks", h.Analytics.RecordClicks)
	analytics.GET("/records/:id", h.Analytics.GetRecord)

	// Maintenance endpoints.
	v1.POST("/admin/backfill-expiry", h.Admin.BackfillExpiry)
	v1.DELETE("/cache/:endpoint", h.Admin.InvalidateEndpoint)
}
