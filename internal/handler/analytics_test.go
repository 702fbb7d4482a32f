package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/search-analytics/internal/attribution"
	"github.com/jonesrussell/search-analytics/internal/domain"
	"github.com/jonesrussell/search-analytics/internal/handler"
	"github.com/jonesrussell/search-analytics/internal/logger"
	"github.com/jonesrussell/search-analytics/internal/metrics"
	"github.com/jonesrussell/search-analytics/internal/storage"
)

type fakeRecorder struct {
	recorded []domain.QueryData
	err      error
}

func (f *fakeRecorder) Record(_ context.Context, data domain.QueryData) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if err := data.Validate(); err != nil {
		return "", err
	}
	f.recorded = append(f.recorded, data)
	return "rec-1", nil
}

type fakeEngine struct {
	recordID string
	created  bool
	err      error
	events   []domain.ClickEvent
}

func (f *fakeEngine) AttributeClick(_ context.Context, event domain.ClickEvent) (string, bool, error) {
	if err := event.Validate(); err != nil {
		return "", false, err
	}
	if f.err != nil {
		return "", false, f.err
	}
	f.events = append(f.events, event)
	return f.recordID, f.created, nil
}

func (f *fakeEngine) AttributeClicks(ctx context.Context, events []domain.ClickEvent) attribution.BatchResult {
	processed := 0
	for _, event := range events {
		if _, _, err := f.AttributeClick(ctx, event); err == nil {
			processed++
		}
	}
	return attribution.BatchResult{Processed: processed, Total: len(events)}
}

type fakeGetter struct {
	records map[string]*domain.QueryRecord
}

func (f *fakeGetter) Get(_ context.Context, recordID string) (*domain.QueryRecord, error) {
	rec, ok := f.records[recordID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return rec, nil
}

func newAnalyticsRouter(rec *fakeRecorder, engine *fakeEngine, getter *fakeGetter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if getter == nil {
		getter = &fakeGetter{}
	}
	h := handler.NewAnalyticsHandler(rec, engine, getter, metrics.New(), logger.NewNop())

	r := gin.New()
	r.POST("/analytics/query", h.RecordQuery)
	r.POST("/analytics/click", h.RecordClick)
	r.POST("/analytics/clicks", h.RecordClicks)
	r.GET("/analytics/records/:id", h.GetRecord)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestRecordQuery_Created(t *testing.T) {
	rec := &fakeRecorder{}
	r := newAnalyticsRouter(rec, &fakeEngine{}, nil)

	w := postJSON(t, r, "/analytics/query", domain.QueryData{
		Endpoint:    "search",
		QueryText:   "marine biology",
		SessionID:   "sess-1",
		ResultCount: 12,
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(rec.recorded) != 1 {
		t.Fatalf("expected 1 recorded query, got %d", len(rec.recorded))
	}
	if rec.recorded[0].QueryText != "marine biology" {
		t.Fatalf("unexpected query text %q", rec.recorded[0].QueryText)
	}
}

func TestRecordQuery_MissingEndpoint(t *testing.T) {
	rec := &fakeRecorder{}
	r := newAnalyticsRouter(rec, &fakeEngine{}, nil)

	w := postJSON(t, r, "/analytics/query", domain.QueryData{QueryText: "biology"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(rec.recorded) != 0 {
		t.Fatalf("expected nothing recorded, got %d", len(rec.recorded))
	}
}

func TestRecordQuery_StoreFailure(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("connection refused")}
	r := newAnalyticsRouter(rec, &fakeEngine{}, nil)

	w := postJSON(t, r, "/analytics/query", domain.QueryData{Endpoint: "search"})

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestRecordClick_Attributed(t *testing.T) {
	engine := &fakeEngine{recordID: "rec-9", created: false}
	r := newAnalyticsRouter(&fakeRecorder{}, engine, nil)

	w := postJSON(t, r, "/analytics/click", domain.ClickEvent{
		OriginalQuery: "biology",
		ClickedURL:    "https://example.edu/bio",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["record_id"] != "rec-9" {
		t.Fatalf("expected record_id rec-9, got %v", body["record_id"])
	}
	if body["created"] != false {
		t.Fatalf("expected created=false, got %v", body["created"])
	}
}

func TestRecordClick_ClickOnlyFallback(t *testing.T) {
	engine := &fakeEngine{recordID: "rec-new", created: true}
	r := newAnalyticsRouter(&fakeRecorder{}, engine, nil)

	w := postJSON(t, r, "/analytics/click", domain.ClickEvent{
		OriginalQuery: "unmatched",
		ClickedURL:    "https://example.edu/page",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["created"] != true {
		t.Fatalf("expected created=true, got %v", body["created"])
	}
}

func TestRecordClick_MissingFields(t *testing.T) {
	r := newAnalyticsRouter(&fakeRecorder{}, &fakeEngine{}, nil)

	w := postJSON(t, r, "/analytics/click", domain.ClickEvent{ClickedURL: "https://example.edu"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing query, got %d", w.Code)
	}
}

func TestRecordClick_StoreFailure(t *testing.T) {
	engine := &fakeEngine{err: errors.New("connection refused")}
	r := newAnalyticsRouter(&fakeRecorder{}, engine, nil)

	w := postJSON(t, r, "/analytics/click", domain.ClickEvent{
		OriginalQuery: "biology",
		ClickedURL:    "https://example.edu",
	})

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestRecordClicks_PartialFailure(t *testing.T) {
	engine := &fakeEngine{recordID: "rec-1"}
	r := newAnalyticsRouter(&fakeRecorder{}, engine, nil)

	events := []domain.ClickEvent{
		{OriginalQuery: "one", ClickedURL: "https://example.edu/1"},
		{ClickedURL: "https://example.edu/2"}, // missing query
		{OriginalQuery: "three", ClickedURL: "https://example.edu/3"},
	}
	w := postJSON(t, r, "/analytics/clicks", events)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["processed"] != float64(2) {
		t.Fatalf("expected 2 processed, got %v", body["processed"])
	}
	if body["total"] != float64(3) {
		t.Fatalf("expected total 3, got %v", body["total"])
	}
}

func TestRecordClicks_InvalidBody(t *testing.T) {
	r := newAnalyticsRouter(&fakeRecorder{}, &fakeEngine{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analytics/clicks", bytes.NewReader([]byte("{not json")))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetRecord_Found(t *testing.T) {
	getter := &fakeGetter{records: map[string]*domain.QueryRecord{
		"rec-7": {ID: "rec-7", QueryText: "biology", HandlerCategory: domain.CategorySearch},
	}}
	r := newAnalyticsRouter(&fakeRecorder{}, &fakeEngine{}, getter)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/analytics/records/rec-7", http.NoBody)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["query_text"] != "biology" {
		t.Fatalf("expected query_text biology, got %v", body["query_text"])
	}
}

func TestGetRecord_NotFound(t *testing.T) {
	r := newAnalyticsRouter(&fakeRecorder{}, &fakeEngine{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/analytics/records/missing", http.NoBody)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
