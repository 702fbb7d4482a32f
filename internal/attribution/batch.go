package attribution

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jonesrussell/search-analytics/internal/domain"
	"github.com/jonesrussell/search-analytics/internal/logger"
)

// BatchResult reports a batch attribution outcome. Processed counts only
// events that completed attribution without error; Total is the input
// length regardless of outcome. The difference is the caller-visible
// skipped count.
type BatchResult struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// AttributeClicks applies AttributeClick to each event independently and
// concurrently. Failure of one event never aborts or rolls back another;
// each in-flight attribution completes to a defined outcome (appended,
// synthesized, or errored) even when the caller's context is cancelled
// mid-batch, because every store mutation is a single atomic statement.
func (e *Engine) AttributeClicks(ctx context.Context, events []domain.ClickEvent) BatchResult {
	var (
		wg        sync.WaitGroup
		processed atomic.Int64
	)

	for _, event := range events {
		wg.Add(1)
		go func(ev domain.ClickEvent) {
			defer wg.Done()

			if _, _, err := e.AttributeClick(ctx, ev); err != nil {
				e.log.Warn("Click skipped during batch attribution",
					logger.String("query", ev.OriginalQuery),
					logger.Error(err),
				)
				return
			}
			processed.Add(1)
		}(event)
	}

	wg.Wait()

	return BatchResult{
		Processed: int(processed.Load()),
		Total:     len(events),
	}
}
