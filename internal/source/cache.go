package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/observed-deaths-etl/internal/observability"
)

// DefaultTTL is how long a download is reused before it is fetched again.
const DefaultTTL = 24 * time.Hour

// CachedFetcher wraps a Fetcher with a persistent cache whose entries expire
// after a fixed TTL.
type CachedFetcher struct {
	inner   Fetcher
	store   *Store
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedFetcher creates a cache decorator around a fetcher. A nil clock
// uses the real clock.
func NewCachedFetcher(inner Fetcher, store *Store, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedFetcher{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	e, ok, err := c.store.Get(rawURL)
	if err != nil {
		// A broken cache should not stop the download.
		c.logger.Warn("cache read failed", "error", err)
	}

	result := "miss"
	if ok {
		age := c.clock.Since(e.FetchedAt)
		if age < c.ttl {
			c.metrics.CacheLookups.WithLabelValues("hit").Inc()
			c.logger.Debug("source cache hit", "age", age)
			return e.Body, nil
		}
		result = "expired"
	}
	c.metrics.CacheLookups.WithLabelValues(result).Inc()

	body, err := c.inner.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(rawURL, body, c.clock.Now()); err != nil {
		c.logger.Warn("cache write failed", "error", err)
	}
	return body, nil
}

// Evict drops the cached body for rawURL so the next Fetch downloads it again.
func (c *CachedFetcher) Evict(rawURL string) error {
	if err := c.store.Delete(rawURL); err != nil {
		return fmt.Errorf("evict cached source: %w", err)
	}
	c.logger.Info("source cache entry evicted")
	return nil
}
