// Package cache memoizes aggregated retrieval results per query
// fingerprint for a configurable time window.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/hybridrank/hybridrank/model"
)

// ComputeFunc produces the result list for a fingerprint on a miss.
type ComputeFunc func(ctx context.Context) ([]*model.ScoredResult, error)

// ResultCache is the only mutable shared state of the engine. Entries
// expire after the configured TTL and are never invalidated by
// underlying data changes, a documented staleness trade-off. Concurrent
// first access to one fingerprint collapses to a single computation.
type ResultCache struct {
	entries *expirable.LRU[string, []*model.ScoredResult]
	group   singleflight.Group
	ttl     time.Duration
	log     *slog.Logger
	metrics model.Metrics
}

// NewResultCache creates a bounded TTL cache. maxEntries and ttl must
// be positive.
func NewResultCache(maxEntries int, ttl time.Duration, logger *slog.Logger, metrics model.Metrics) *ResultCache {
	return &ResultCache{
		entries: expirable.NewLRU[string, []*model.ScoredResult](maxEntries, nil, ttl),
		ttl:     ttl,
		log:     logger,
		metrics: metrics,
	}
}

// GetOrCompute returns the cached result list for a fingerprint, or
// invokes compute on a miss and stores the outcome. Losing callers of a
// concurrent first access wait for the in-flight computation instead of
// duplicating it. The shared computation runs on a cancel-detached
// context so one caller's disconnect cannot fail the waiters; the
// calling context still bounds this caller's wait.
func (c *ResultCache) GetOrCompute(ctx context.Context, fingerprint string, compute ComputeFunc) ([]*model.ScoredResult, error) {
	if results, ok := c.entries.Get(fingerprint); ok {
		c.metrics.CacheHit()
		return results, nil
	}

	resultCh := c.group.DoChan(fingerprint, func() (interface{}, error) {
		return c.lookupOrCompute(ctx, fingerprint, compute)
	})

	select {
	case result := <-resultCh:
		if result.Err != nil {
			return nil, result.Err
		}
		if result.Shared {
			c.log.Debug("coalesced cache computation", slog.String("fingerprint", fingerprint))
		}
		return result.Val.([]*model.ScoredResult), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// lookupOrCompute runs inside a flight. The lookup repeats here because
// a concurrent caller may have stored the entry between this caller's
// miss and the flight execution; finding one counts as a hit.
func (c *ResultCache) lookupOrCompute(ctx context.Context, fingerprint string, compute ComputeFunc) ([]*model.ScoredResult, error) {
	if results, ok := c.entries.Get(fingerprint); ok {
		c.metrics.CacheHit()
		return results, nil
	}

	c.metrics.CacheMiss()
	results, err := compute(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}

	c.entries.Add(fingerprint, results)
	return results, nil
}

// Len returns the number of live entries, expired ones excluded.
func (c *ResultCache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry. Intended for tests and administrative
// resets, not part of the query path.
func (c *ResultCache) Purge() {
	c.entries.Purge()
}
