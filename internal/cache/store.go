package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/search-analytics/internal/logger"
)

// connectionTimeout is the timeout for verifying the Redis connection.
const connectionTimeout = 5 * time.Second

// ErrEmptyAddress is returned when the Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

// ClientConfig holds Redis connection settings.
type ClientConfig struct {
	Address  string
	Password string
	DB       int
}

// NewClient creates a Redis client and verifies the connection. Callers
// may treat a verification failure as non-fatal: the Store degrades to
// misses when the client is nil or the server is unreachable.
func NewClient(cfg ClientConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return client, err
	}

	return client, nil
}

// TTLPolicy maps endpoint names to cache entry lifetimes. Dispatch is
// table-driven: unknown endpoints use the Default lifetime.
type TTLPolicy struct {
	Endpoints map[string]time.Duration
	Default   time.Duration
}

// TTL returns the lifetime for the given endpoint.
func (p TTLPolicy) TTL(endpoint string) time.Duration {
	if ttl, ok := p.Endpoints[endpoint]; ok {
		return ttl
	}
	return p.Default
}

// Store is the failure-tolerant response cache adapter. Every operation
// is wrapped in a bounded timeout; an unreachable or unconfigured store
// turns Get into a miss and Set/Invalidate into a reported failure, never
// an error that aborts the request path.
type Store struct {
	client  *redis.Client
	policy  TTLPolicy
	timeout time.Duration
	log     logger.Logger
}

// NewStore creates a cache store. A nil client is allowed and makes every
// operation a miss/no-op.
func NewStore(client *redis.Client, policy TTLPolicy, timeout time.Duration, log logger.Logger) *Store {
	return &Store{
		client:  client,
		policy:  policy,
		timeout: timeout,
		log:     log,
	}
}

// Get returns the cached payload for the endpoint and parameter set, or
// ok=false on a miss or any store failure.
func (s *Store) Get(ctx context.Context, endpoint string, params map[string]string) ([]byte, bool) {
	if s.client == nil {
		return nil, false
	}

	key := Normalize(endpoint, params)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.log.Warn("Cache get failed, treating as miss",
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, false
	}

	return payload, true
}

// Set stores the payload under the normalized key with the endpoint's TTL.
// Returns false when the store is unavailable or the write fails.
func (s *Store) Set(ctx context.Context, endpoint string, params map[string]string, payload []byte) bool {
	if s.client == nil {
		return false
	}

	key := Normalize(endpoint, params)
	ttl := s.policy.TTL(endpoint)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		s.log.Warn("Cache set failed",
			logger.String("key", key),
			logger.Duration("ttl", ttl),
			logger.Error(err),
		)
		return false
	}

	return true
}

// Invalidate removes the entry for the endpoint and parameter set.
// Returns false when the store is unavailable or the delete fails.
func (s *Store) Invalidate(ctx context.Context, endpoint string, params map[string]string) bool {
	if s.client == nil {
		return false
	}

	key := Normalize(endpoint, params)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.Warn("Cache invalidate failed",
			logger.String("key", key),
			logger.Error(err),
		)
		return false
	}

	return true
}

// InvalidateEndpoint removes every entry under the endpoint prefix.
// Returns the number of deleted keys; 0 with a log entry on failure.
func (s *Store) InvalidateEndpoint(ctx context.Context, endpoint string) int {
	if s.client == nil {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	deleted := 0
	iter := s.client.Scan(ctx, 0, endpoint+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			s.log.Warn("Cache endpoint invalidation delete failed",
				logger.String("key", iter.Val()),
				logger.Error(err),
			)
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		s.log.Warn("Cache endpoint invalidation scan failed",
			logger.String("endpoint", endpoint),
			logger.Error(err),
		)
	}

	return deleted
}

// Ping reports whether the underlying store is reachable. Used by health
// checks only.
func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return ErrEmptyAddress
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.client.Ping(ctx).Err()
}
