package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/search-analytics/internal/attribution"
	"github.com/jonesrussell/search-analytics/internal/domain"
	"github.com/jonesrussell/search-analytics/internal/logger"
	"github.com/jonesrussell/search-analytics/internal/metrics"
	"github.com/jonesrussell/search-analytics/internal/storage"
)

// QueryRecorder persists completed query submissions.
type QueryRecorder interface {
	Record(ctx context.Context, data domain.QueryData) (string, error)
}

// RecordGetter fetches a stored query record by id.
type RecordGetter interface {
	Get(ctx context.Context, recordID string) (*domain.QueryRecord, error)
}

// Attributor correlates click events with stored query records.
type Attributor interface {
	AttributeClick(ctx context.Context, event domain.ClickEvent) (recordID string, created bool, err error)
	AttributeClicks(ctx context.Context, events []domain.ClickEvent) attribution.BatchResult
}

// AnalyticsHandler handles query and click ingestion requests.
type AnalyticsHandler struct {
	recorder QueryRecorder
	engine   Attributor
	records  RecordGetter
	metrics  *metrics.Metrics
	logger   logger.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler with the given dependencies.
func NewAnalyticsHandler(
	rec QueryRecorder,
	engine Attributor,
	records RecordGetter,
	m *metrics.Metrics,
	log logger.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		recorder: rec,
		engine:   engine,
		records:  records,
		metrics:  m,
		logger:   log,
	}
}

// RecordQuery stores a completed query submitted by an external caller.
func (h *AnalyticsHandler) RecordQuery(c *gin.Context) {
	var data domain.QueryData
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := h.recorder.Record(c.Request.Context(), data)
	if err != nil {
		if errors.Is(err, domain.ErrMissingEndpoint) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to record query",
			logger.String("endpoint", data.Endpoint),
			logger.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to record query"})
		return
	}

	h.metrics.QueriesRecorded.WithLabelValues(
		string(domain.ParseCategory(data.Endpoint)),
	).Inc()

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// RecordClick attributes a single click event to a query record.
func (h *AnalyticsHandler) RecordClick(c *gin.Context) {
	var event domain.ClickEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		h.metrics.ClicksRejected.Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	recordID, created, err := h.engine.AttributeClick(c.Request.Context(), event)
	if err != nil {
		if errors.Is(err, domain.ErrMissingOriginalQuery) || errors.Is(err, domain.ErrMissingClickedURL) {
			h.metrics.ClicksRejected.Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.metrics.ClicksRejected.Inc()
		h.logger.Error("Failed to attribute click",
			logger.String("original_query", event.OriginalQuery),
			logger.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to record click"})
		return
	}

	if created {
		h.metrics.ClicksCreated.Inc()
	} else {
		h.metrics.ClicksAttributed.Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"record_id": recordID,
		"created":   created,
	})
}

// RecordClicks attributes a batch of click events. Individual failures are
// isolated; the response reports how many events were processed.
func (h *AnalyticsHandler) RecordClicks(c *gin.Context) {
	var events []domain.ClickEvent
	if err := c.ShouldBindJSON(&events); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result := h.engine.AttributeClicks(c.Request.Context(), events)

	c.JSON(http.StatusOK, gin.H{
		"processed": result.Processed,
		"total":     result.Total,
	})
}

// GetRecord returns a stored query record, clicks included.
func (h *AnalyticsHandler) GetRecord(c *gin.Context) {
	rec, err := h.records.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		h.logger.Error("Failed to load query record",
			logger.String("record_id", c.Param("id")),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load record"})
		return
	}

	c.JSON(http.StatusOK, rec)
}
