package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenboard/kitchenboard/internal/dates"
	"github.com/kitchenboard/kitchenboard/internal/inputs"
	jobmetrics "github.com/kitchenboard/kitchenboard/internal/jobs"
	"github.com/kitchenboard/kitchenboard/internal/shared"
)

var cal = dates.MustCalendar(dates.DefaultTimezone)

type stubImporter struct {
	mu    sync.Mutex
	days  []string
	errOn map[string]error
}

func (s *stubImporter) ImportPOS(ctx context.Context, date string) (inputs.DailyInput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errOn[date]; err != nil {
		return inputs.DailyInput{}, err
	}
	s.days = append(s.days, date)
	return inputs.DailyInput{Date: date, TotalRevenue: 100}, nil
}

type stubLocker struct {
	held      map[string]bool
	acquired  []string
	refreshes int
	loseAfter int
	released  bool
}

func (l *stubLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	if l.held[key] {
		return nil, ErrLocked
	}
	l.acquired = append(l.acquired, key)
	return l, nil
}

func (l *stubLocker) Refresh(ctx context.Context) error {
	l.refreshes++
	if l.loseAfter > 0 && l.refreshes >= l.loseAfter {
		return ErrLockLost
	}
	return nil
}

func (l *stubLocker) Release() {
	l.released = true
}

func newTestJob(importer DayImporter, locker Locker) *POSImportJob {
	job := NewPOSImportJob(importer, locker, cal, slog.New(slog.NewTextHandler(io.Discard, nil)), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.WithClock(func() time.Time {
		return time.Date(2025, 6, 18, 0, 30, 0, 0, cal.Location())
	})
	return job
}

func importTask(t *testing.T, date string) *asynq.Task {
	t.Helper()
	task, err := NewImportDayTask(date)
	require.NoError(t, err)
	return task
}

func TestImportDayDefaultsToYesterday(t *testing.T) {
	importer := &stubImporter{}
	locker := &stubLocker{}

	require.NoError(t, newTestJob(importer, locker).HandleImportDay(context.Background(), importTask(t, "")))
	assert.Equal(t, []string{"2025-06-17"}, importer.days)
	assert.Equal(t, []string{"kitchenboard:lock:pos-import:2025-06-17"}, locker.acquired)
}

func TestImportDayExplicitDate(t *testing.T) {
	importer := &stubImporter{}
	require.NoError(t, newTestJob(importer, nil).HandleImportDay(context.Background(), importTask(t, "2025-01-10")))
	assert.Equal(t, []string{"2025-01-10"}, importer.days)
}

func TestImportDaySkipsWhenLocked(t *testing.T) {
	importer := &stubImporter{}
	locker := &stubLocker{held: map[string]bool{"kitchenboard:lock:pos-import:2025-01-10": true}}

	require.NoError(t, newTestJob(importer, locker).HandleImportDay(context.Background(), importTask(t, "2025-01-10")))
	assert.Empty(t, importer.days)
}

func TestImportDayRetryPolicy(t *testing.T) {
	importer := &stubImporter{errOn: map[string]error{
		"2025-01-10": shared.ConfigError{Settings: []string{"POS_API_TOKEN"}},
		"2025-01-11": &shared.UpstreamError{Vendor: "pos", StatusCode: 503},
	}}
	job := newTestJob(importer, nil)
	ctx := context.Background()

	err := job.HandleImportDay(ctx, importTask(t, "10.01.2025"))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = job.HandleImportDay(ctx, asynq.NewTask(TaskPOSImportDay, []byte(`{"date":`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = job.HandleImportDay(ctx, importTask(t, "2025-01-10"))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorIs(t, err, shared.ErrConfig)

	err = job.HandleImportDay(ctx, importTask(t, "2025-01-11"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	assert.ErrorIs(t, err, shared.ErrUpstream)
}

func TestBackfillImportsEachDayInOrder(t *testing.T) {
	importer := &stubImporter{}
	task, err := NewBackfillTask("2025-03-29", "2025-04-01")
	require.NoError(t, err)

	locker := &stubLocker{}
	require.NoError(t, newTestJob(importer, locker).HandleBackfill(context.Background(), task))
	assert.Equal(t, []string{"2025-03-29", "2025-03-30", "2025-03-31", "2025-04-01"}, importer.days)
	assert.Equal(t, 3, locker.refreshes)
	assert.True(t, locker.released)
}

func TestBackfillStopsWhenLockLeaseIsLost(t *testing.T) {
	importer := &stubImporter{}
	task, err := NewBackfillTask("2025-03-29", "2025-04-01")
	require.NoError(t, err)

	locker := &stubLocker{loseAfter: 2}
	err = newTestJob(importer, locker).HandleBackfill(context.Background(), task)
	require.ErrorIs(t, err, ErrLockLost)
	assert.Equal(t, []string{"2025-03-29", "2025-03-30"}, importer.days)
}

func TestBackfillStopsAtFirstFailure(t *testing.T) {
	importer := &stubImporter{errOn: map[string]error{"2025-03-30": errors.New("boom")}}
	task, err := NewBackfillTask("2025-03-29", "2025-04-01")
	require.NoError(t, err)

	require.Error(t, newTestJob(importer, nil).HandleBackfill(context.Background(), task))
	assert.Equal(t, []string{"2025-03-29"}, importer.days)
}

func TestBackfillRejectsBadRanges(t *testing.T) {
	job := newTestJob(&stubImporter{}, nil)
	for _, r := range [][2]string{{"2025-04-01", "2025-03-29"}, {"2024-01-01", "2025-06-01"}, {"", "2025-01-01"}} {
		task, err := NewBackfillTask(r[0], r[1])
		require.NoError(t, err)
		assert.ErrorIs(t, job.HandleBackfill(context.Background(), task), asynq.SkipRetry, r)
	}
}

func TestRedisLockerExcludesSecondHolder(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	locker := NewRedisLocker(rdb)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "kitchenboard:lock:test", time.Minute)
	require.NoError(t, err)
	assert.True(t, srv.Exists("kitchenboard:lock:test"))

	_, err = locker.Acquire(ctx, "kitchenboard:lock:test", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	srv.FastForward(40 * time.Second)
	require.NoError(t, lease.Refresh(ctx))
	srv.FastForward(40 * time.Second)
	assert.True(t, srv.Exists("kitchenboard:lock:test"))

	lease.Release()
	assert.False(t, srv.Exists("kitchenboard:lock:test"))
	assert.ErrorIs(t, lease.Refresh(ctx), ErrLockLost)

	lease, err = locker.Acquire(ctx, "kitchenboard:lock:test", time.Minute)
	require.NoError(t, err)
	lease.Release()
}
