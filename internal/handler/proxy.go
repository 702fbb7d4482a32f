package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/search-analytics/internal/cache"
	"github.com/jonesrussell/search-analytics/internal/domain"
	"github.com/jonesrussell/search-analytics/internal/logger"
	"github.com/jonesrussell/search-analytics/internal/metrics"
	"github.com/jonesrussell/search-analytics/internal/middleware"
	"github.com/jonesrussell/search-analytics/internal/upstream"
)

// cacheStatusHeader reports whether a proxied response was served from cache.
const cacheStatusHeader = "X-Cache"

// queryTextParams are the parameter names carrying the user's query text,
// checked in priority order.
var queryTextParams = []string{"query", "q", "partial_query", "partialQuery"}

// Fetcher forwards a request to the hosted search engine.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params map[string]string) (*upstream.Result, error)
}

// ProxyHandler serves search and suggestion requests, fronting the hosted
// engine with the response cache and recording analytics as a side effect.
type ProxyHandler struct {
	upstream Fetcher
	cache    *cache.Store
	recorder QueryRecorder
	metrics  *metrics.Metrics
	logger   logger.Logger
}

// NewProxyHandler creates a ProxyHandler with the given dependencies.
func NewProxyHandler(
	up Fetcher,
	store *cache.Store,
	rec QueryRecorder,
	m *metrics.Metrics,
	log logger.Logger,
) *ProxyHandler {
	return &ProxyHandler{
		upstream: up,
		cache:    store,
		recorder: rec,
		metrics:  m,
		logger:   log,
	}
}

// HandleEndpoint proxies GET /api/v1/:endpoint. Cache hits skip the
// upstream call entirely; both paths record the query unless the request
// came from a known crawler.
func (h *ProxyHandler) HandleEndpoint(c *gin.Context) {
	endpoint := c.Param("endpoint")
	if domain.ParseCategory(endpoint) == domain.CategoryOther {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown endpoint"})
		return
	}

	params := requestParams(c)
	ctx := c.Request.Context()

	if payload, ok := h.cache.Get(ctx, endpoint, params); ok {
		h.metrics.CacheHits.WithLabelValues(endpoint).Inc()
		h.recordQuery(c, endpoint, params, upstream.CountResults(payload), 0, true)
		c.Header(cacheStatusHeader, "HIT")
		c.Data(http.StatusOK, "application/json", payload)
		return
	}
	h.metrics.CacheMisses.WithLabelValues(endpoint).Inc()

	result, err := h.upstream.Fetch(ctx, endpoint, params)
	if err != nil {
		h.logger.Error("Upstream fetch failed",
			logger.String("endpoint", endpoint),
			logger.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream search engine unavailable"})
		return
	}
	h.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(result.Duration.Seconds())

	h.cache.Set(ctx, endpoint, params, result.Payload)
	h.recordQuery(c, endpoint, params, result.ResultCount, result.Duration, false)

	c.Header(cacheStatusHeader, "MISS")
	c.Data(http.StatusOK, "application/json", result.Payload)
}

// recordQuery persists the query as a side effect. Failures are logged and
// never surfaced to the search caller.
func (h *ProxyHandler) recordQuery(
	c *gin.Context,
	endpoint string,
	params map[string]string,
	resultCount int,
	duration time.Duration,
	cacheHit bool,
) {
	if middleware.IsBot(c) {
		return
	}

	data := domain.QueryData{
		Endpoint:       endpoint,
		QueryText:      queryText(params),
		SessionID:      sessionID(params),
		ClientIP:       c.ClientIP(),
		ResultCount:    resultCount,
		ResponseTimeMs: duration.Milliseconds(),
		CacheHit:       cacheHit,
	}

	if _, err := h.recorder.Record(c.Request.Context(), data); err != nil {
		h.logger.Warn("Failed to record proxied query",
			logger.String("endpoint", endpoint),
			logger.Error(err),
		)
		return
	}
	h.metrics.QueriesRecorded.WithLabelValues(string(domain.ParseCategory(endpoint))).Inc()
}

// requestParams flattens the URL query to single values, matching what is
// forwarded upstream and used for cache keying.
func requestParams(c *gin.Context) map[string]string {
	values := c.Request.URL.Query()
	params := make(map[string]string, len(values))
	for name, vals := range values {
		if len(vals) > 0 {
			params[name] = vals[0]
		}
	}
	return params
}

func queryText(params map[string]string) string {
	for _, name := range queryTextParams {
		if v, ok := params[name]; ok && v != "" {
			return v
		}
	}
	return ""
}

func sessionID(params map[string]string) string {
	if v := params["sessionId"]; v != "" {
		return v
	}
	return params["session_id"]
}
