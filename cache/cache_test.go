package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hybridrank/hybridrank/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (m *countingMetrics) ObserveQueryLatency(time.Duration) {}
func (m *countingMetrics) CacheHit()                         { m.hits.Add(1) }
func (m *countingMetrics) CacheMiss()                        { m.misses.Add(1) }
func (m *countingMetrics) SignalDegraded(model.Signal)       {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func singleResult(id string) []*model.ScoredResult {
	return []*model.ScoredResult{{Candidate: &model.Candidate{ID: id}, Score: 0.9}}
}

func TestGetOrCompute(t *testing.T) {
	ctx := context.Background()

	t.Run("Miss computes and stores", func(t *testing.T) {
		metrics := &countingMetrics{}
		cache := NewResultCache(8, time.Minute, testLogger(), metrics)

		var calls atomic.Int64
		results, err := cache.GetOrCompute(ctx, "fp", func(ctx context.Context) ([]*model.ScoredResult, error) {
			calls.Add(1)
			return singleResult("a"), nil
		})

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, int64(1), calls.Load())
		assert.Equal(t, int64(1), metrics.misses.Load())
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("Hit within TTL skips computation", func(t *testing.T) {
		metrics := &countingMetrics{}
		cache := NewResultCache(8, time.Minute, testLogger(), metrics)

		var calls atomic.Int64
		compute := func(ctx context.Context) ([]*model.ScoredResult, error) {
			calls.Add(1)
			return singleResult("a"), nil
		}

		first, err := cache.GetOrCompute(ctx, "fp", compute)
		require.NoError(t, err)

		second, err := cache.GetOrCompute(ctx, "fp", compute)
		require.NoError(t, err)

		assert.Equal(t, int64(1), calls.Load(), "Expected the second call to be served from cache")
		assert.Equal(t, int64(1), metrics.hits.Load())
		assert.Equal(t, first[0].Candidate.ID, second[0].Candidate.ID)
	})

	t.Run("Entry stored by a concurrent caller counts as a hit", func(t *testing.T) {
		metrics := &countingMetrics{}
		cache := NewResultCache(8, time.Minute, testLogger(), metrics)

		_, err := cache.GetOrCompute(ctx, "fp", func(ctx context.Context) ([]*model.ScoredResult, error) {
			return singleResult("a"), nil
		})
		require.NoError(t, err)
		require.Equal(t, int64(1), metrics.misses.Load())

		// A flight whose caller missed before the entry was stored
		// re-checks the cache and must count the find as a hit.
		results, err := cache.lookupOrCompute(ctx, "fp", func(ctx context.Context) ([]*model.ScoredResult, error) {
			t.Fatal("Expected no computation when the entry is already stored")
			return nil, nil
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a", results[0].Candidate.ID)
		assert.Equal(t, int64(1), metrics.hits.Load(), "Expected the re-check find to count as a hit")
		assert.Equal(t, int64(1), metrics.misses.Load(), "Expected no additional miss")
	})

	t.Run("Expired entry is recomputed", func(t *testing.T) {
		metrics := &countingMetrics{}
		cache := NewResultCache(8, 50*time.Millisecond, testLogger(), metrics)

		var calls atomic.Int64
		compute := func(ctx context.Context) ([]*model.ScoredResult, error) {
			calls.Add(1)
			return singleResult("a"), nil
		}

		_, err := cache.GetOrCompute(ctx, "fp", compute)
		require.NoError(t, err)

		time.Sleep(80 * time.Millisecond)

		_, err = cache.GetOrCompute(ctx, "fp", compute)
		require.NoError(t, err)
		assert.Equal(t, int64(2), calls.Load(), "Expected the expired entry to trigger a fresh computation")
	})

	t.Run("Different fingerprints are cached independently", func(t *testing.T) {
		cache := NewResultCache(8, time.Minute, testLogger(), &countingMetrics{})

		var calls atomic.Int64
		compute := func(ctx context.Context) ([]*model.ScoredResult, error) {
			calls.Add(1)
			return singleResult("a"), nil
		}

		_, err := cache.GetOrCompute(ctx, "fp1", compute)
		require.NoError(t, err)
		_, err = cache.GetOrCompute(ctx, "fp2", compute)
		require.NoError(t, err)

		assert.Equal(t, int64(2), calls.Load())
		assert.Equal(t, 2, cache.Len())
	})

	t.Run("Compute errors are not cached", func(t *testing.T) {
		cache := NewResultCache(8, time.Minute, testLogger(), &countingMetrics{})

		boom := errors.New("source down")
		_, err := cache.GetOrCompute(ctx, "fp", func(ctx context.Context) ([]*model.ScoredResult, error) {
			return nil, boom
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, cache.Len(), "Expected a failed computation to leave no entry")

		// A later call must compute again and may succeed
		results, err := cache.GetOrCompute(ctx, "fp", func(ctx context.Context) ([]*model.ScoredResult, error) {
			return singleResult("a"), nil
		})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("Purge drops all entries", func(t *testing.T) {
		cache := NewResultCache(8, time.Minute, testLogger(), &countingMetrics{})

		_, err := cache.GetOrCompute(ctx, "fp", func(ctx context.Context) ([]*model.ScoredResult, error) {
			return singleResult("a"), nil
		})
		require.NoError(t, err)
		require.Equal(t, 1, cache.Len())

		cache.Purge()
		assert.Equal(t, 0, cache.Len())
	})
}

func TestGetOrComputeCoalescing(t *testing.T) {
	ctx := context.Background()

	t.Run("Concurrent cold queries collapse to one computation", func(t *testing.T) {
		cache := NewResultCache(8, time.Minute, testLogger(), &countingMetrics{})

		var calls atomic.Int64
		started := make(chan struct{})
		release := make(chan struct{})
		compute := func(ctx context.Context) ([]*model.ScoredResult, error) {
			calls.Add(1)
			close(started)
			<-release
			return singleResult("a"), nil
		}

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		results := make([][]*model.ScoredResult, workers)

		// First caller enters the computation
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[0], errs[0] = cache.GetOrCompute(ctx, "fp", compute)
		}()
		<-started

		// Followers join while the computation is still in flight
		for i := 1; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], errs[i] = cache.GetOrCompute(ctx, "fp", compute)
			}()
		}
		close(release)
		wg.Wait()

		assert.Equal(t, int64(1), calls.Load(), "Expected exactly one computation for all concurrent callers")
		for i := 0; i < workers; i++ {
			require.NoError(t, errs[i])
			require.Len(t, results[i], 1)
			assert.Equal(t, "a", results[i][0].Candidate.ID)
		}
	})

	t.Run("Waiting caller respects its own context", func(t *testing.T) {
		cache := NewResultCache(8, time.Minute, testLogger(), &countingMetrics{})

		started := make(chan struct{})
		release := make(chan struct{})
		compute := func(ctx context.Context) ([]*model.ScoredResult, error) {
			close(started)
			<-release
			return singleResult("a"), nil
		}

		go func() {
			_, _ = cache.GetOrCompute(context.Background(), "fp", compute)
		}()
		<-started

		cancelCtx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := cache.GetOrCompute(cancelCtx, "fp", compute)
		assert.ErrorIs(t, err, context.Canceled, "Expected a cancelled waiter to give up without failing the flight")

		close(release)
	})

	t.Run("Computation survives the initiating caller's cancellation", func(t *testing.T) {
		cache := NewResultCache(8, time.Minute, testLogger(), &countingMetrics{})

		started := make(chan struct{})
		release := make(chan struct{})
		done := make(chan struct{})
		compute := func(ctx context.Context) ([]*model.ScoredResult, error) {
			close(started)
			<-release
			// The computation context is detached from the caller
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			defer close(done)
			return singleResult("a"), nil
		}

		cancelCtx, cancel := context.WithCancel(context.Background())
		go func() {
			_, _ = cache.GetOrCompute(cancelCtx, "fp", compute)
		}()
		<-started

		cancel()
		close(release)
		<-done

		// The entry is stored despite the cancelled initiator
		assert.Eventually(t, func() bool {
			return cache.Len() == 1
		}, time.Second, 10*time.Millisecond, "Expected the detached computation to populate the cache")
	})
}
