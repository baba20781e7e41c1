package kpi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kitchenboard/kitchenboard/internal/dates"
	"github.com/kitchenboard/kitchenboard/internal/platform/cache"
	"github.com/kitchenboard/kitchenboard/internal/shared"
)

// DefaultCacheTTL is how long a computed snapshot is served unchanged.
const DefaultCacheTTL = 30 * time.Second

// Computer produces a fresh snapshot.
type Computer interface {
	Compute(ctx context.Context, date time.Time) (Snapshot, error)
}

// SnapshotStore keeps the last good snapshot per date beyond the process.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, date string) (Snapshot, time.Time, bool, error)
}

// Service serves snapshots through the KPI cache tier and degrades to the
// last good snapshot when computing fails.
type Service struct {
	engine Computer
	cal    *dates.Calendar
	memo   *cache.Memo[Snapshot]
	ttl    time.Duration
	store  SnapshotStore
	logger *slog.Logger
	now    func() time.Time
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithSnapshotStore enables the persistent last-good fallback.
func WithSnapshotStore(store SnapshotStore) ServiceOption {
	return func(s *Service) {
		s.store = store
	}
}

// WithClock overrides the clock used for cache age reporting.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the engine with its cache tier.
func NewService(engine Computer, cal *dates.Calendar, memo *cache.Memo[Snapshot], ttl time.Duration, logger *slog.Logger, opts ...ServiceOption) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if memo == nil {
		memo = cache.NewMemo[Snapshot]("kpi")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{engine: engine, cal: cal, memo: memo, ttl: ttl, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the snapshot for date.
func (s *Service) Get(ctx context.Context, date time.Time) (Snapshot, error) {
	dayKey := s.cal.Format(date)
	key := "kpi:" + dayKey

	snap, info, err := s.memo.GetOrCompute(ctx, key, s.ttl, func(ctx context.Context) (Snapshot, error) {
		fresh, err := s.engine.Compute(ctx, date)
		if err != nil {
			return Snapshot{}, err
		}
		if s.store != nil {
			if err := s.store.Save(ctx, fresh); err != nil {
				s.logger.Warn("kpi snapshot not persisted", slog.String("date", dayKey), slog.Any("error", err))
			}
		}
		return fresh, nil
	})
	if err == nil {
		snap.Meta.Cached = info.Hit
		if info.Hit {
			snap.Meta.CacheAgeSeconds = seconds(info.Age(s.now()))
		}
		snap.Meta.CacheTTLSeconds = seconds(s.ttl)
		return snap, nil
	}
	if !degradable(err) {
		return Snapshot{}, err
	}

	if stale, storedAt, ok := s.memo.Lookup(key); ok {
		return s.degraded(stale, storedAt, err), nil
	}
	if s.store != nil {
		stale, storedAt, ok, loadErr := s.store.Load(ctx, dayKey)
		if loadErr != nil {
			s.logger.Warn("kpi snapshot lookup failed", slog.String("date", dayKey), slog.Any("error", loadErr))
		} else if ok {
			return s.degraded(stale, storedAt, err), nil
		}
	}
	return Snapshot{}, err
}

func (s *Service) degraded(snap Snapshot, storedAt time.Time, cause error) Snapshot {
	age := s.now().Sub(storedAt)
	s.logger.Warn("serving cached kpi snapshot",
		slog.String("date", snap.Date),
		slog.Duration("age", age),
		slog.Any("error", cause),
	)
	snap.Meta.Cached = true
	snap.Meta.Source = SourceCache
	snap.Meta.CacheAgeSeconds = seconds(age)
	snap.Meta.CacheTTLSeconds = nil
	snap.Meta.Message = fmt.Sprintf("live revenue unavailable; showing figures computed %s ago", age.Round(time.Second))
	return snap
}

// degradable reports whether a stale snapshot may stand in for err. Caller
// and configuration mistakes are never masked.
func degradable(err error) bool {
	switch {
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrConfig):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errors.Is(err, shared.ErrUpstream)
	}
	return true
}

func seconds(d time.Duration) *float64 {
	v := d.Seconds()
	return &v
}
