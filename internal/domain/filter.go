package domain

import "time"

// MatchFilter is the predicate set used to locate the query record a
// click belongs to. QueryText and Since are always active; SessionID and
// ClientIP narrow the match further when non-empty. Query text matching
// is case-insensitive and exact, never substring.
type MatchFilter struct {
	QueryText string
	Since     time.Time
	SessionID string
	ClientIP  string
}
