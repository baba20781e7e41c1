package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type countingObserver struct {
	mu     sync.Mutex
	events map[string]int
}

func (o *countingObserver) ObserveCache(tier, event string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.events == nil {
		o.events = map[string]int{}
	}
	o.events[tier+":"+event]++
}

func TestGetOrComputeCoalescesConcurrentMisses(t *testing.T) {
	memo := NewMemo[int]("kpi")
	var calls atomic.Int32
	release := make(chan struct{})

	const callers = 25
	var wg sync.WaitGroup
	results := make([]int, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = memo.GetOrCompute(context.Background(), "kpi:2025-01-10", time.Minute, func(ctx context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 1200, nil
			})
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 1200, results[i])
	}
}

func TestGetOrComputeExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
	memo := NewMemo[string]("pos", WithClock(clock.Now))
	ttl := 5 * time.Minute
	version := 0
	compute := func(ctx context.Context) (string, error) {
		version++
		if version == 1 {
			return "first", nil
		}
		return "second", nil
	}

	v, info, err := memo.GetOrCompute(context.Background(), "k", ttl, compute)
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.False(t, info.Hit)

	clock.Advance(ttl - time.Millisecond)
	v, info, err = memo.GetOrCompute(context.Background(), "k", ttl, compute)
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.True(t, info.Hit)
	assert.Equal(t, ttl-time.Millisecond, info.Age(clock.Now()))

	clock.Advance(2 * time.Millisecond)
	v, info, err = memo.GetOrCompute(context.Background(), "k", ttl, compute)
	require.NoError(t, err)
	assert.Equal(t, "second", v)
	assert.False(t, info.Hit)
	assert.Equal(t, 2, version)
}

func TestGetOrComputeErrorsAreNotCached(t *testing.T) {
	obs := &countingObserver{}
	memo := NewMemo[float64]("pos", WithObserver(obs))
	boom := errors.New("vendor down")

	_, _, err := memo.GetOrCompute(context.Background(), "k", time.Minute, func(ctx context.Context) (float64, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, memo.Len())

	v, _, err := memo.GetOrCompute(context.Background(), "k", time.Minute, func(ctx context.Context) (float64, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)

	_, _, err = memo.GetOrCompute(context.Background(), "k", time.Minute, func(ctx context.Context) (float64, error) {
		t.Fatal("must not recompute a fresh value")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, obs.events["pos:miss"])
	assert.Equal(t, 1, obs.events["pos:hit"])
}

func TestGetOrComputeCallerCancellationDoesNotAbortComputation(t *testing.T) {
	memo := NewMemo[int]("kpi")
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(done)
		_, _, err := memo.GetOrCompute(ctx, "k", time.Minute, func(ctx context.Context) (int, error) {
			close(started)
			<-release
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 7, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	}()

	<-started
	cancel()
	<-done
	close(release)

	require.Eventually(t, func() bool { return memo.Len() == 1 }, time.Second, 5*time.Millisecond)
	v, _, ok := memo.Lookup("k")
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestLookupReturnsExpiredValues(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
	memo := NewMemo[int]("kpi", WithClock(clock.Now))
	_, _, err := memo.GetOrCompute(context.Background(), "k", time.Second, func(ctx context.Context) (int, error) {
		return 3, nil
	})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	v, storedAt, ok := memo.Lookup("k")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, time.Hour, clock.Now().Sub(storedAt))

	assert.Equal(t, 1, memo.Purge(30*time.Minute))
	_, _, ok = memo.Lookup("k")
	assert.False(t, ok)

	memo.Invalidate("missing")
	assert.Equal(t, 0, memo.Len())
}
