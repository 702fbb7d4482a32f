package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/search-analytics/internal/cache"
	"github.com/jonesrussell/search-analytics/internal/logger"
)

// Backfiller assigns expiry timestamps to legacy records in batches.
type Backfiller interface {
	BackfillExpiry(ctx context.Context, batchSize int) (updated, remaining int64, err error)
}

// AdminHandler handles maintenance endpoints: expiry backfill and cache
// invalidation.
type AdminHandler struct {
	store     Backfiller
	cache     *cache.Store
	batchSize int
	logger    logger.Logger
}

// NewAdminHandler creates an AdminHandler with the given dependencies.
func NewAdminHandler(store Backfiller, cacheStore *cache.Store, batchSize int, log logger.Logger) *AdminHandler {
	return &AdminHandler{
		store:     store,
		cache:     cacheStore,
		batchSize: batchSize,
		logger:    log,
	}
}

// backfillRequest optionally overrides the configured batch size.
type backfillRequest struct {
	BatchSize int `json:"batch_size"`
}

// BackfillExpiry runs one backfill batch over records without an expiry
// timestamp. Callers repeat the request until remaining reaches zero; the
// operation is safe to interrupt and resume.
func (h *AdminHandler) BackfillExpiry(c *gin.Context) {
	size := h.batchSize
	var req backfillRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.BatchSize > 0 {
		size = req.BatchSize
	}

	updated, remaining, err := h.store.BackfillExpiry(c.Request.Context(), size)
	if err != nil {
		h.logger.Error("Expiry backfill batch failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "backfill failed"})
		return
	}

	h.logger.Info("Expiry backfill batch complete",
		logger.Int64("updated", updated),
		logger.Int64("remaining", remaining),
	)
	c.JSON(http.StatusOK, gin.H{
		"updated":   updated,
		"remaining": remaining,
	})
}

// InvalidateEndpoint drops all cached responses for one endpoint.
func (h *AdminHandler) InvalidateEndpoint(c *gin.Context) {
	endpoint := c.Param("endpoint")
	removed := h.cache.InvalidateEndpoint(c.Request.Context(), endpoint)

	c.JSON(http.StatusOK, gin.H{
		"endpoint":    endpoint,
		"invalidated": removed,
	})
}
