package attribution_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonesrussell/search-analytics/internal/domain"
)

func TestAttributeClicks_BatchIsolation(t *testing.T) {
	store := newFakeStore()
	store.addRecord("nursing", "s1", "", time.Now().Add(-time.Minute))
	engine := newTestEngine(store)

	events := []domain.ClickEvent{
		{OriginalQuery: "nursing", ClickedURL: "https://example.edu/a", SessionID: "s1"},
		{OriginalQuery: "nursing", ClickedURL: "https://example.edu/b", SessionID: "s1"},
		{OriginalQuery: "biology", ClickedURL: "https://example.edu/c"},
		{OriginalQuery: "missing url"}, // malformed: no clicked url
		{OriginalQuery: "chemistry", ClickedURL: "https://example.edu/d"},
	}

	result := engine.AttributeClicks(context.Background(), events)

	if result.Total != 5 {
		t.Errorf("total: got %d, want 5", result.Total)
	}
	if result.Processed != 4 {
		t.Errorf("processed: got %d, want 4", result.Processed)
	}
}

func TestAttributeClicks_ConcurrentAppendsAllLand(t *testing.T) {
	store := newFakeStore()
	recID := store.addRecord("nursing", "s1", "", time.Now().Add(-time.Minute))
	engine := newTestEngine(store)

	const clicks = 8
	events := make([]domain.ClickEvent, clicks)
	for i := range events {
		events[i] = domain.ClickEvent{
			OriginalQuery: "nursing",
			ClickedURL:    "https://example.edu/result",
			SessionID:     "s1",
			ClickPosition: i + 1,
		}
	}

	result := engine.AttributeClicks(context.Background(), events)

	if result.Processed != clicks {
		t.Fatalf("processed: got %d, want %d", result.Processed, clicks)
	}
	if got := len(store.record(recID).ClickedResults); got != clicks {
		t.Errorf("clicked results: got %d, want %d (no lost updates)", got, clicks)
	}
}

func TestAttributeClicks_EmptyBatch(t *testing.T) {
	engine := newTestEngine(newFakeStore())

	result := engine.AttributeClicks(context.Background(), nil)

	if result.Processed != 0 || result.Total != 0 {
		t.Errorf("empty batch: got %+v, want zero counts", result)
	}
}

func TestAttributeClicks_AllMalformed(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store)

	result := engine.AttributeClicks(context.Background(), []domain.ClickEvent{
		{}, {OriginalQuery: "q"}, {ClickedURL: "https://example.edu"},
	})

	if result.Processed != 0 {
		t.Errorf("processed: got %d, want 0", result.Processed)
	}
	if result.Total != 3 {
		t.Errorf("total: got %d, want 3", result.Total)
	}
	if store.insertCalls != 0 {
		t.Error("malformed events must not create records")
	}
}
