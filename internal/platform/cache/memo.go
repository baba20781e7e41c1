package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Observer receives hit/miss/shared events per cache tier.
type Observer interface {
	ObserveCache(tier, event string)
}

// Info describes how a GetOrCompute result was produced.
type Info struct {
	Hit      bool
	Shared   bool
	StoredAt time.Time
	TTL      time.Duration
}

// Age returns how old the value was at now.
func (i Info) Age(now time.Time) time.Duration {
	if i.StoredAt.IsZero() {
		return 0
	}
	return now.Sub(i.StoredAt)
}

type memoItem[T any] struct {
	value    T
	storedAt time.Time
	expires  time.Time
}

// Memo is an in-process TTL cache whose misses are coalesced: concurrent
// callers for one key share a single computation.
type Memo[T any] struct {
	tier     string
	mu       sync.Mutex
	items    map[string]memoItem[T]
	group    singleflight.Group
	now      func() time.Time
	observer Observer
}

// MemoOption customises a Memo.
type MemoOption func(*memoConfig)

type memoConfig struct {
	now      func() time.Time
	observer Observer
}

// WithClock overrides the clock used for expiry.
func WithClock(now func() time.Time) MemoOption {
	return func(c *memoConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithObserver reports cache events.
func WithObserver(o Observer) MemoOption {
	return func(c *memoConfig) {
		c.observer = o
	}
}

// NewMemo constructs an empty Memo labelled with tier for metrics.
func NewMemo[T any](tier string, opts ...MemoOption) *Memo[T] {
	cfg := memoConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Memo[T]{
		tier:     tier,
		items:    make(map[string]memoItem[T]),
		now:      cfg.now,
		observer: cfg.observer,
	}
}

// GetOrCompute returns the cached value for key while it is younger than ttl,
// otherwise runs fn once for all concurrent callers and stores its result.
// Errors are returned to every waiting caller and are not cached.
//
// fn runs detached from the caller's cancellation so an abandoned request
// still warms the cache for the next one; a caller whose ctx ends stops
// waiting and gets ctx.Err().
func (m *Memo[T]) GetOrCompute(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, Info, error) {
	if item, ok := m.fresh(key); ok {
		m.emit("hit")
		return item.value, Info{Hit: true, StoredAt: item.storedAt, TTL: ttl}, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (interface{}, error) {
		if item, ok := m.fresh(key); ok {
			return item, nil
		}
		m.emit("miss")
		value, err := fn(detached)
		if err != nil {
			return nil, err
		}
		now := m.now()
		item := memoItem[T]{value: value, storedAt: now, expires: now.Add(ttl)}
		m.mu.Lock()
		m.items[key] = item
		m.mu.Unlock()
		return item, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, Info{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, Info{}, res.Err
		}
		item := res.Val.(memoItem[T])
		if res.Shared {
			m.emit("shared")
		}
		return item.value, Info{Shared: res.Shared, StoredAt: item.storedAt, TTL: ttl}, nil
	}
}

// Lookup returns the last stored value for key even when it has expired.
func (m *Memo[T]) Lookup(key string) (T, time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[key]
	return item.value, item.storedAt, ok
}

// Invalidate drops key so the next call recomputes.
func (m *Memo[T]) Invalidate(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

// Purge removes entries stored more than olderThan ago. Expired values are
// otherwise kept for Lookup until overwritten.
func (m *Memo[T]) Purge(olderThan time.Duration) int {
	cutoff := m.now().Add(-olderThan)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, item := range m.items {
		if item.storedAt.Before(cutoff) {
			delete(m.items, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries.
func (m *Memo[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memo[T]) fresh(key string) (memoItem[T], bool) {
	m.mu.Lock()
	item, ok := m.items[key]
	m.mu.Unlock()
	if !ok || !m.now().Before(item.expires) {
		return memoItem[T]{}, false
	}
	return item, true
}

func (m *Memo[T]) emit(event string) {
	if m.observer != nil {
		m.observer.ObserveCache(m.tier, event)
	}
}
