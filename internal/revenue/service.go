package revenue

import (
	"context"
	"time"

	"github.com/kitchenboard/kitchenboard/internal/dates"
	"github.com/kitchenboard/kitchenboard/internal/platform/cache"
)

// DefaultCacheTTL is how long a range sum is reused.
const DefaultCacheTTL = 5 * time.Minute

// Service serves range sums through the POS cache tier.
type Service struct {
	agg  *Aggregator
	cal  *dates.Calendar
	memo *cache.Memo[RangeResult]
	ttl  time.Duration
}

// NewService wraps agg with memo. A non-positive ttl falls back to
// DefaultCacheTTL.
func NewService(agg *Aggregator, cal *dates.Calendar, memo *cache.Memo[RangeResult], ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if memo == nil {
		memo = cache.NewMemo[RangeResult]("pos")
	}
	return &Service{agg: agg, cal: cal, memo: memo, ttl: ttl}
}

// Range returns the cached or freshly aggregated sum for [from, to].
func (s *Service) Range(ctx context.Context, from, to time.Time) (RangeResult, error) {
	if s.cal.Day(from).After(s.cal.Day(to)) {
		return RangeResult{}, nil
	}
	return s.compute(ctx, from, to)
}

// Fresh drops any cached sum for the range, aggregates it again and stores
// the new result for later Range calls.
func (s *Service) Fresh(ctx context.Context, from, to time.Time) (RangeResult, error) {
	s.memo.Invalidate(s.key(from, to))
	return s.compute(ctx, from, to)
}

func (s *Service) compute(ctx context.Context, from, to time.Time) (RangeResult, error) {
	res, _, err := s.memo.GetOrCompute(ctx, s.key(from, to), s.ttl, func(ctx context.Context) (RangeResult, error) {
		return s.agg.Aggregate(ctx, from, to)
	})
	return res, err
}

func (s *Service) key(from, to time.Time) string {
	return "pos:" + s.cal.Format(from) + ":" + s.cal.Format(to)
}
