package kpi

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenboard/kitchenboard/internal/platform/cache"
	"github.com/kitchenboard/kitchenboard/internal/shared"
)

type scriptedEngine struct {
	mu    sync.Mutex
	err   error
	calls int
	today float64
}

func (s *scriptedEngine) Compute(ctx context.Context, date time.Time) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return Snapshot{}, s.err
	}
	return Snapshot{
		Date:    cal.Format(date),
		Revenue: Revenue{Today: s.today},
		Meta:    Meta{Source: SourceLive},
	}, nil
}

func (s *scriptedEngine) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestKPIService(engine Computer, clock *testClock, opts ...ServiceOption) *Service {
	memo := cache.NewMemo[Snapshot]("kpi", cache.WithClock(clock.Now))
	opts = append(opts, WithClock(clock.Now))
	return NewService(engine, cal, memo, 30*time.Second, quietLogger(), opts...)
}

func TestServiceReportsCacheAge(t *testing.T) {
	clock := &testClock{now: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
	engine := &scriptedEngine{today: 1200}
	svc := newTestKPIService(engine, clock)
	date := at(t, "2025-01-10", 0)

	first, err := svc.Get(context.Background(), date)
	require.NoError(t, err)
	assert.False(t, first.Meta.Cached)
	assert.Nil(t, first.Meta.CacheAgeSeconds)
	require.NotNil(t, first.Meta.CacheTTLSeconds)
	assert.Equal(t, 30.0, *first.Meta.CacheTTLSeconds)

	clock.Advance(10 * time.Second)
	second, err := svc.Get(context.Background(), date)
	require.NoError(t, err)
	assert.True(t, second.Meta.Cached)
	require.NotNil(t, second.Meta.CacheAgeSeconds)
	assert.Equal(t, 10.0, *second.Meta.CacheAgeSeconds)
	assert.Equal(t, SourceLive, second.Meta.Source)
	assert.Equal(t, 1, engine.calls)
}

func TestServiceDegradesToLastSnapshotInMemory(t *testing.T) {
	clock := &testClock{now: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
	engine := &scriptedEngine{today: 1200}
	svc := newTestKPIService(engine, clock)
	date := at(t, "2025-01-10", 0)

	_, err := svc.Get(context.Background(), date)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	engine.fail(&shared.UpstreamError{Vendor: "pos", StatusCode: 503})
	snap, err := svc.Get(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, snap.Revenue.Today)
	assert.True(t, snap.Meta.Cached)
	assert.Equal(t, SourceCache, snap.Meta.Source)
	assert.NotEmpty(t, snap.Meta.Message)
	require.NotNil(t, snap.Meta.CacheAgeSeconds)
	assert.Equal(t, 120.0, *snap.Meta.CacheAgeSeconds)
}

func TestServiceDegradesToRedisSnapshot(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	clock := &testClock{now: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
	store := NewRedisSnapshotStore(client, time.Hour)
	store.now = clock.Now
	date := at(t, "2025-01-10", 0)

	warm := newTestKPIService(&scriptedEngine{today: 800}, clock, WithSnapshotStore(store))
	_, err := warm.Get(context.Background(), date)
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	failing := &scriptedEngine{err: &shared.UpstreamError{Vendor: "pos", Err: context.DeadlineExceeded}}
	restarted := newTestKPIService(failing, clock, WithSnapshotStore(store))
	snap, err := restarted.Get(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, 800.0, snap.Revenue.Today)
	assert.Equal(t, SourceCache, snap.Meta.Source)
	require.NotNil(t, snap.Meta.CacheAgeSeconds)
	assert.Equal(t, 300.0, *snap.Meta.CacheAgeSeconds)
}

func TestServicePropagatesErrorWithoutCache(t *testing.T) {
	clock := &testClock{now: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
	engine := &scriptedEngine{err: &shared.UpstreamError{Vendor: "pos", StatusCode: 500}}
	svc := newTestKPIService(engine, clock)

	_, err := svc.Get(context.Background(), at(t, "2025-01-10", 0))
	assert.ErrorIs(t, err, shared.ErrUpstream)
}

func TestServiceNeverMasksConfigErrors(t *testing.T) {
	clock := &testClock{now: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
	engine := &scriptedEngine{today: 10}
	svc := newTestKPIService(engine, clock)
	date := at(t, "2025-01-10", 0)
	_, err := svc.Get(context.Background(), date)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	engine.fail(shared.ConfigError{Settings: []string{"POS_API_TOKEN"}})
	_, err = svc.Get(context.Background(), date)
	assert.ErrorIs(t, err, shared.ErrConfig)
}

func TestRedisSnapshotStoreExpires(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisSnapshotStore(client, 0)
	ctx := context.Background()

	_, _, ok, err := store.Load(ctx, "2025-01-10")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, Snapshot{Date: "2025-01-10", Revenue: Revenue{Week: 5000}}))
	snap, _, ok, err := store.Load(ctx, "2025-01-10")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5000.0, snap.Revenue.Week)

	srv.FastForward(DefaultSnapshotTTL + time.Second)
	_, _, ok, err = store.Load(ctx, "2025-01-10")
	require.NoError(t, err)
	assert.False(t, ok)
}
