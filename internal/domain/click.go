package domain

import (
	"errors"
	"time"
)

// Validation errors for click events. These are caller errors and are
// rejected before any store access.
var (
	ErrMissingOriginalQuery = errors.New("click event missing original query")
	ErrMissingClickedURL    = errors.New("click event missing clicked url")
)

// ClickEvent is a transient click submission. It is never persisted as-is;
// attribution either appends it to an existing QueryRecord or synthesizes a
// click-only record from it.
type ClickEvent struct {
	OriginalQuery string    `json:"original_query"`
	ClickedURL    string    `json:"clicked_url"`
	ClickedTitle  string    `json:"clicked_title,omitempty"`
	ClickPosition int       `json:"click_position,omitempty"`
	ClickType     string    `json:"click_type,omitempty"`
	SessionID     string    `json:"session_id,omitempty"`
	ClientIP      string    `json:"client_ip,omitempty"`
	Timestamp     time.Time `json:"timestamp,omitempty"`
}

// Validate checks the required click event fields.
func (e *ClickEvent) Validate() error {
	if e.OriginalQuery == "" {
		return ErrMissingOriginalQuery
	}
	if e.ClickedURL == "" {
		return ErrMissingClickedURL
	}
	return nil
}

// Result converts the event into the ClickedResult entry appended to a
// record, stamped with the given time.
func (e *ClickEvent) Result(now time.Time) ClickedResult {
	return ClickedResult{
		URL:       e.ClickedURL,
		Title:     e.ClickedTitle,
		Position:  e.ClickPosition,
		ClickType: e.ClickType,
		Timestamp: now,
	}
}
