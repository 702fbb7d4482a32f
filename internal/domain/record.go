package domain

import "time"

// EmptyQueryPlaceholder replaces an empty query string so every record
// carries a non-empty query_text.
const EmptyQueryPlaceholder = "(empty)"

// HandlerCategory classifies the request type that produced a record.
// It drives record expiry tiering and downstream enrichment shape.
type HandlerCategory string

const (
	CategorySuggest         HandlerCategory = "suggest"
	CategorySuggestPeople   HandlerCategory = "suggestPeople"
	CategorySuggestPrograms HandlerCategory = "suggestPrograms"
	CategorySearch          HandlerCategory = "search"
	CategoryClickOnly       HandlerCategory = "click-only"
	CategoryOther           HandlerCategory = "other"
)

// ParseCategory maps an endpoint name to its handler category.
// Unknown endpoints fall back to CategoryOther.
func ParseCategory(endpoint string) HandlerCategory {
	switch endpoint {
	case "suggest":
		return CategorySuggest
	case "suggestPeople":
		return CategorySuggestPeople
	case "suggestPrograms":
		return CategorySuggestPrograms
	case "search":
		return CategorySearch
	default:
		return CategoryOther
	}
}

// IsSuggestType reports whether the category belongs to the ephemeral
// autocomplete tier for record expiry purposes.
func (c HandlerCategory) IsSuggestType() bool {
	switch c {
	case CategorySuggest, CategorySuggestPeople, CategorySuggestPrograms:
		return true
	default:
		return false
	}
}

// ClickedResult is a single click appended to a QueryRecord.
// Entries are append-only: never removed or reordered.
type ClickedResult struct {
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	Position  int       `json:"position,omitempty"`
	ClickType string    `json:"click_type,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// GeoLocation is optional enrichment attached to a record.
// It is stored as opaque metadata and never used in matching.
type GeoLocation struct {
	City      string  `json:"city,omitempty"`
	Region    string  `json:"region,omitempty"`
	Country   string  `json:"country,omitempty"`
	Timezone  string  `json:"timezone,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// QueryRecord is one persisted analytics document per completed
// search/suggestion request (or a synthesized click-only record).
type QueryRecord struct {
	ID              string          `json:"id"`
	QueryText       string          `json:"query_text"`
	HandlerCategory HandlerCategory `json:"handler_category"`
	SessionID       string          `json:"session_id,omitempty"`
	ClientIP        string          `json:"client_ip,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
	ExpiresAt       time.Time       `json:"expires_at"`

	ResultCount    int   `json:"result_count"`
	ResponseTimeMs int64 `json:"response_time_ms"`
	HasResults     bool  `json:"has_results"`
	CacheHit       bool  `json:"cache_hit"`

	Geo *GeoLocation `json:"geo,omitempty"`

	ClickedResults     []ClickedResult `json:"clicked_results,omitempty"`
	LastClickTimestamp *time.Time      `json:"last_click_timestamp,omitempty"`
}
