package storage

import (
	"time"

	"github.com/jonesrussell/search-analytics/internal/domain"
)

// ExpiryPolicy holds the two record-expiry tiers: a short tier for
// ephemeral autocomplete categories and a longer tier for durable search
// and click-only records. Exact durations are policy; the tiering is the
// invariant.
type ExpiryPolicy struct {
	SuggestTTL time.Duration
	SearchTTL  time.Duration
}

// ExpiresAt computes the expiry for a record created at the given time.
// The result is assigned exactly once, at creation, and never recomputed;
// appending a click does not extend a record's lifetime.
func (p ExpiryPolicy) ExpiresAt(category domain.HandlerCategory, created time.Time) time.Time {
	if category.IsSuggestType() {
		return created.Add(p.SuggestTTL)
	}
	return created.Add(p.SearchTTL)
}
