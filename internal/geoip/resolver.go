// Package geoip defines the geo enrichment surface. Resolved locations
// are stored as opaque metadata on query records and never participate
// in attribution matching.
package geoip

import (
	"context"

	"github.com/jonesrussell/search-analytics/internal/domain"
)

// Resolver looks up a location for a client IP. A nil result with a nil
// error means the address could not be resolved; recording proceeds
// without enrichment.
type Resolver interface {
	Resolve(ctx context.Context, ip string) (*domain.GeoLocation, error)
}

// NopResolver resolves nothing. Used when no GeoIP backend is configured.
type NopResolver struct{}

// Resolve always returns no location.
func (NopResolver) Resolve(context.Context, string) (*domain.GeoLocation, error) {
	return nil, nil
}
