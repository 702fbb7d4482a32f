package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/search-analytics/internal/cache"
	"github.com/jonesrussell/search-analytics/internal/logger"
)

const testTimeout = 2 * time.Second

func newTestStore(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	policy := cache.TTLPolicy{
		Endpoints: map[string]time.Duration{
			"suggest": 10 * time.Minute,
			"search":  5 * time.Minute,
		},
		Default: 2 * time.Minute,
	}

	return cache.NewStore(client, policy, testTimeout, logger.NewNop()), mr
}

func TestStore_RoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	params := map[string]string{"query": "nursing", "collection": "programs"}
	payload := []byte(`{"results":[{"title":"Nursing BScN"}]}`)

	if ok := store.Set(ctx, "search", params, payload); !ok {
		t.Fatal("expected Set to succeed")
	}

	got, ok := store.Get(ctx, "search", params)
	if !ok {
		t.Fatal("expected cache hit after Set")
	}
	if string(got) != string(payload) {
		t.Errorf("payload: got %s, want %s", got, payload)
	}
}

func TestStore_GetWithEquivalentParams(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// Populate with the alias, read back with the canonical name plus a
	// session parameter. Both must resolve to the same key.
	payload := []byte(`{"suggestions":["nursing"]}`)
	store.Set(ctx, "suggest", map[string]string{"partial_query": "nur"}, payload)

	got, ok := store.Get(ctx, "suggest", map[string]string{
		"query":     "nur",
		"sessionId": "s-123",
	})
	if !ok {
		t.Fatal("expected hit for logically-equivalent parameter set")
	}
	if string(got) != string(payload) {
		t.Errorf("payload: got %s, want %s", got, payload)
	}
}

func TestStore_MissOnUnknownKey(t *testing.T) {
	store, _ := newTestStore(t)

	_, ok := store.Get(context.Background(), "search", map[string]string{"query": "nothing"})
	if ok {
		t.Fatal("expected miss for never-set key")
	}
}

func TestStore_EndpointTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	params := map[string]string{"query": "bio"}
	store.Set(ctx, "suggest", params, []byte("suggestions"))

	// Entry survives a lapse shorter than the suggest TTL.
	mr.FastForward(5 * time.Minute)
	if _, ok := store.Get(ctx, "suggest", params); !ok {
		t.Fatal("expected hit before TTL expiry")
	}

	// And is gone after the TTL elapses.
	mr.FastForward(6 * time.Minute)
	if _, ok := store.Get(ctx, "suggest", params); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestStore_DefaultTTLForUnknownEndpoint(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	params := map[string]string{"query": "x"}
	store.Set(ctx, "unclassified", params, []byte("data"))

	mr.FastForward(3 * time.Minute)
	if _, ok := store.Get(ctx, "unclassified", params); ok {
		t.Fatal("expected miss after default TTL expiry")
	}
}

func TestStore_Invalidate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	params := map[string]string{"query": "nursing"}
	store.Set(ctx, "search", params, []byte("payload"))

	if ok := store.Invalidate(ctx, "search", params); !ok {
		t.Fatal("expected Invalidate to succeed")
	}
	if _, ok := store.Get(ctx, "search", params); ok {
		t.Fatal("expected miss after invalidation")
	}
}

func TestStore_InvalidateEndpoint(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Set(ctx, "search", map[string]string{"query": "a"}, []byte("1"))
	store.Set(ctx, "search", map[string]string{"query": "b"}, []byte("2"))
	store.Set(ctx, "suggest", map[string]string{"query": "c"}, []byte("3"))

	deleted := store.InvalidateEndpoint(ctx, "search")
	if deleted != 2 {
		t.Fatalf("expected 2 deleted keys, got %d", deleted)
	}

	// Other endpoints are untouched.
	if _, ok := store.Get(ctx, "suggest", map[string]string{"query": "c"}); !ok {
		t.Fatal("expected suggest entry to survive search invalidation")
	}
}

func TestStore_UnreachableStoreDegradesToMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := cache.NewStore(client, cache.TTLPolicy{Default: time.Minute}, testTimeout, logger.NewNop())

	mr.Close()

	ctx := context.Background()
	params := map[string]string{"query": "nursing"}

	if _, ok := store.Get(ctx, "search", params); ok {
		t.Fatal("expected miss when store is unreachable")
	}
	if ok := store.Set(ctx, "search", params, []byte("x")); ok {
		t.Fatal("expected Set failure when store is unreachable")
	}
	if ok := store.Invalidate(ctx, "search", params); ok {
		t.Fatal("expected Invalidate failure when store is unreachable")
	}
}

func TestStore_NilClient(t *testing.T) {
	store := cache.NewStore(nil, cache.TTLPolicy{Default: time.Minute}, testTimeout, logger.NewNop())
	ctx := context.Background()

	if _, ok := store.Get(ctx, "search", nil); ok {
		t.Fatal("expected miss for unconfigured store")
	}
	if ok := store.Set(ctx, "search", nil, []byte("x")); ok {
		t.Fatal("expected Set failure for unconfigured store")
	}
}
