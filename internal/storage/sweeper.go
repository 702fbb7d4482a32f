package storage

import (
	"context"
	"sync"
	"time"

	"github.com/jonesrussell/search-analytics/internal/logger"
)

// sweepTimeout bounds a single sweep pass.
const sweepTimeout = 30 * time.Second

// Sweeper periodically deletes records whose expiry has passed. It is the
// application-level stand-in for a store-native TTL index: records are
// deleted passively on schedule, never by request-path logic.
type Sweeper struct {
	store    *Store
	interval time.Duration
	limit    int
	log      logger.Logger

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewSweeper creates a sweeper that deletes up to limit expired records
// every interval.
func NewSweeper(store *Store, interval time.Duration, limit int, log logger.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		limit:    limit,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep goroutine.
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop signals the sweep goroutine and waits for it to finish.
// Safe to call multiple times.
func (s *Sweeper) Stop() {
	s.once.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	deleted, err := s.store.SweepExpired(ctx, s.limit)
	if err != nil {
		s.log.Error("Expired record sweep failed", logger.Error(err))
		return
	}

	if deleted > 0 {
		s.log.Info("Swept expired records", logger.Int64("deleted", deleted))
	}
}
