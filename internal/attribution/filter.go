// Package attribution links click events to the query records that
// produced them, falling back to synthesized click-only records when no
// prior query matches.
package attribution

import (
	"time"

	"github.com/jonesrussell/search-analytics/internal/domain"
)

// BuildFilter derives the match predicate set for a click event. It is a
// pure function so the narrowing rules are testable without a store:
//
//  1. query text must equal the click's original query, case-insensitively
//     and exactly (no substring matching), within the recency window;
//  2. a session id on the event adds a required equality predicate;
//  3. a client IP adds another, in addition to the session id when both
//     are present.
func BuildFilter(event domain.ClickEvent, now time.Time, window time.Duration) domain.MatchFilter {
	return domain.MatchFilter{
		QueryText: event.OriginalQuery,
		Since:     now.Add(-window),
		SessionID: event.SessionID,
		ClientIP:  event.ClientIP,
	}
}
