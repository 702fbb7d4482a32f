package attribution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/search-analytics/internal/domain"
	"github.com/jonesrussell/search-analytics/internal/logger"
	"github.com/jonesrussell/search-analytics/internal/storage"
)

// RecordStore is the persistence surface the engine needs. Satisfied by
// *storage.Store; tests supply fakes.
type RecordStore interface {
	FindMatch(ctx context.Context, filter domain.MatchFilter) (*domain.QueryRecord, error)
	AppendClick(ctx context.Context, recordID string, click domain.ClickedResult) error
	Insert(ctx context.Context, rec *domain.QueryRecord) (string, error)
}

// Engine attributes click events to query records. Every click either
// mutates exactly one existing record or creates exactly one click-only
// record; never both, never neither.
type Engine struct {
	store  RecordStore
	window time.Duration
	log    logger.Logger
}

// NewEngine creates an attribution engine with the given recency window.
func NewEngine(store RecordStore, window time.Duration, log logger.Logger) *Engine {
	return &Engine{
		store:  store,
		window: window,
		log:    log,
	}
}

// AttributeClick locates the best-matching prior query record for the
// event and appends the click to it, or synthesizes a click-only record
// when nothing matches. Returns the touched record's id and whether it
// was newly created.
//
// Malformed events are rejected before any store access. A store failure
// is returned as-is: the click is dropped for this call with no partial
// state, since the append is a single atomic statement.
func (e *Engine) AttributeClick(ctx context.Context, event domain.ClickEvent) (recordID string, created bool, err error) {
	if err := event.Validate(); err != nil {
		return "", false, err
	}

	now := time.Now().UTC()
	filter := BuildFilter(event, now, e.window)

	match, err := e.store.FindMatch(ctx, filter)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", false, fmt.Errorf("attribution lookup: %w", err)
	}

	if err == nil {
		if appendErr := e.store.AppendClick(ctx, match.ID, event.Result(now)); appendErr != nil {
			return "", false, fmt.Errorf("attribution append: %w", appendErr)
		}

		e.log.Debug("Click attributed to existing query",
			logger.String("record_id", match.ID),
			logger.String("query", event.OriginalQuery),
		)
		return match.ID, false, nil
	}

	// No candidate: the defined trigger for fallback creation, not an error.
	id, err := e.createClickOnly(ctx, event, now)
	if err != nil {
		return "", false, err
	}

	e.log.Debug("Click-only record created",
		logger.String("record_id", id),
		logger.String("query", event.OriginalQuery),
	)
	return id, true, nil
}

// createClickOnly persists a standalone record through the normal
// creation path, so it receives the usual expiry assignment.
func (e *Engine) createClickOnly(ctx context.Context, event domain.ClickEvent, now time.Time) (string, error) {
	rec := &domain.QueryRecord{
		QueryText:          event.OriginalQuery,
		HandlerCategory:    domain.CategoryClickOnly,
		SessionID:          event.SessionID,
		ClientIP:           event.ClientIP,
		Timestamp:          now,
		ClickedResults:     []domain.ClickedResult{event.Result(now)},
		LastClickTimestamp: &now,
	}

	id, err := e.store.Insert(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("create click-only record: %w", err)
	}
	return id, nil
}
