package upstream_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonesrussell/search-analytics/internal/logger"
	"github.com/jonesrussell/search-analytics/internal/upstream"
)

const clientTimeout = 2 * time.Second

func TestFetch_ForwardsParams(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(`{"results":[{"title":"a"},{"title":"b"}]}`))
	}))
	defer srv.Close()

	client := upstream.NewClient(srv.URL, clientTimeout, logger.NewNop())

	res, err := client.Fetch(context.Background(), "search", map[string]string{"query": "nursing"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if gotPath != "/search" {
		t.Errorf("path: got %q, want /search", gotPath)
	}
	if gotQuery != "nursing" {
		t.Errorf("query param: got %q, want nursing", gotQuery)
	}
	if res.ResultCount != 2 {
		t.Errorf("result count: got %d, want 2", res.ResultCount)
	}
	if res.Duration <= 0 {
		t.Error("expected non-zero duration")
	}
}

func TestFetch_TotalMatchingPreferred(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"resultPacket":{"resultsSummary":{"totalMatching":137}}}}`))
	}))
	defer srv.Close()

	client := upstream.NewClient(srv.URL, clientTimeout, logger.NewNop())

	res, err := client.Fetch(context.Background(), "search", nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.ResultCount != 137 {
		t.Errorf("result count: got %d, want 137", res.ResultCount)
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := upstream.NewClient(srv.URL, clientTimeout, logger.NewNop())

	_, err := client.Fetch(context.Background(), "search", nil)
	if !errors.Is(err, upstream.ErrUpstreamStatus) {
		t.Fatalf("error: got %v, want ErrUpstreamStatus", err)
	}
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := upstream.NewClient(srv.URL, 50*time.Millisecond, logger.NewNop())

	if _, err := client.Fetch(context.Background(), "search", nil); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestFetch_UnparseablePayloadCountsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	client := upstream.NewClient(srv.URL, clientTimeout, logger.NewNop())

	res, err := client.Fetch(context.Background(), "suggest", nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.ResultCount != 0 {
		t.Errorf("result count: got %d, want 0", res.ResultCount)
	}
}
