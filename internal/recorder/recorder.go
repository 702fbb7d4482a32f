// Package recorder persists analytics records for completed search and
// suggestion requests.
package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/search-analytics/internal/domain"
	"github.com/jonesrussell/search-analytics/internal/geoip"
	"github.com/jonesrussell/search-analytics/internal/logger"
)

// RecordStore is the persistence surface the recorder needs.
// Satisfied by *storage.Store.
type RecordStore interface {
	Insert(ctx context.Context, rec *domain.QueryRecord) (string, error)
}

// Recorder builds and persists one QueryRecord per completed request.
type Recorder struct {
	store RecordStore
	geo   geoip.Resolver
	log   logger.Logger
}

// New creates a recorder. The resolver may be geoip.NopResolver when no
// GeoIP backend is configured.
func New(store RecordStore, geo geoip.Resolver, log logger.Logger) *Recorder {
	return &Recorder{
		store: store,
		geo:   geo,
		log:   log,
	}
}

// Record validates the query data and persists a new record, returning
// the store-assigned id. Geo enrichment is best-effort: a resolver
// failure is logged and the record is written without it.
func (r *Recorder) Record(ctx context.Context, data domain.QueryData) (string, error) {
	if err := data.Validate(); err != nil {
		return "", err
	}

	rec := &domain.QueryRecord{
		QueryText:       data.QueryText,
		HandlerCategory: domain.ParseCategory(data.Endpoint),
		SessionID:       data.SessionID,
		ClientIP:        data.ClientIP,
		Timestamp:       time.Now().UTC(),
		ResultCount:     data.ResultCount,
		ResponseTimeMs:  data.ResponseTimeMs,
		HasResults:      data.ResultCount > 0,
		CacheHit:        data.CacheHit,
		Geo:             data.Geo,
	}

	if rec.Geo == nil && data.ClientIP != "" {
		loc, err := r.geo.Resolve(ctx, data.ClientIP)
		if err != nil {
			r.log.Warn("GeoIP resolution failed",
				logger.String("client_ip", data.ClientIP),
				logger.Error(err),
			)
		} else {
			rec.Geo = loc
		}
	}

	id, err := r.store.Insert(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("record query: %w", err)
	}

	r.log.Debug("Query recorded",
		logger.String("record_id", id),
		logger.String("endpoint", data.Endpoint),
		logger.Bool("cache_hit", data.CacheHit),
	)

	return id, nil
}
