package domain

import "errors"

// ErrMissingEndpoint is returned when a query submission has no endpoint.
var ErrMissingEndpoint = errors.New("query data missing endpoint")

// QueryData is the input for recording a completed search/suggestion
// request. The upstream client supplies the observational fields; the
// core does not know how that call was made.
type QueryData struct {
	Endpoint       string `json:"endpoint"`
	QueryText      string `json:"query_text"`
	SessionID      string `json:"session_id,omitempty"`
	ClientIP       string `json:"client_ip,omitempty"`
	ResultCount    int    `json:"result_count"`
	ResponseTimeMs int64  `json:"response_time_ms"`
	CacheHit       bool   `json:"cache_hit"`

	Geo *GeoLocation `json:"geo,omitempty"`
}

// Validate checks the required query data fields.
func (q *QueryData) Validate() error {
	if q.Endpoint == "" {
		return ErrMissingEndpoint
	}
	return nil
}
