package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks reachability of a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	version string
	db      Pinger
	cache   Pinger
}

// NewHealthHandler creates a HealthHandler that reports the given version
// and dependency status.
func NewHealthHandler(version string, db, cacheStore Pinger) *HealthHandler {
	return &HealthHandler{version: version, db: db, cache: cacheStore}
}

// HealthCheck returns service liveness.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck reports dependency reachability. The record store is
// required; the cache degrades gracefully and only affects the reported
// detail, not readiness.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "ok"
	ready := true
	if err := h.db.Ping(ctx); err != nil {
		dbStatus = "unreachable"
		ready = false
	}

	cacheStatus := "ok"
	if err := h.cache.Ping(ctx); err != nil {
		cacheStatus = "unreachable"
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}

	c.JSON(status, gin.H{
		"status":   state,
		"database": dbStatus,
		"cache":    cacheStatus,
	})
}
