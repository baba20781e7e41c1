// Package revenue sums vendor revenue over arbitrary date ranges by splitting
// them into vendor-sized chunks.
package revenue

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kitchenboard/kitchenboard/internal/dates"
	"github.com/kitchenboard/kitchenboard/internal/pos"
)

const (
	// DefaultConcurrency bounds vendor calls in flight per aggregation.
	DefaultConcurrency = 3
	// DefaultMaxChunkDays matches the vendor's two-day query window.
	DefaultMaxChunkDays = 2
)

// Fetcher is the vendor call the aggregator fans out over.
type Fetcher interface {
	FetchRevenue(ctx context.Context, fromUnix, toUnix int64) (pos.Revenue, error)
}

// RangeResult is the summed revenue for an inclusive date range and the
// number of vendor calls made to produce it.
type RangeResult struct {
	Total  float64 `json:"total"`
	Chunks int     `json:"chunks"`
}

// Aggregator splits ranges into chunks and fetches them with bounded
// concurrency.
type Aggregator struct {
	fetcher      Fetcher
	cal          *dates.Calendar
	concurrency  int
	maxChunkDays int
}

// AggregatorOption customises an Aggregator.
type AggregatorOption func(*Aggregator)

// WithConcurrency sets the per-call worker limit.
func WithConcurrency(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithMaxChunkDays sets the chunk size in calendar days.
func WithMaxChunkDays(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxChunkDays = n
		}
	}
}

// NewAggregator constructs an aggregator over fetcher.
func NewAggregator(fetcher Fetcher, cal *dates.Calendar, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		fetcher:      fetcher,
		cal:          cal,
		concurrency:  DefaultConcurrency,
		maxChunkDays: DefaultMaxChunkDays,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate sums revenue for [from, to], both inclusive. An inverted range
// yields a zero result. The first failing chunk fails the whole call.
func (a *Aggregator) Aggregate(ctx context.Context, from, to time.Time) (RangeResult, error) {
	chunks := a.cal.Chunks(from, to, a.maxChunkDays)
	if len(chunks) == 0 {
		return RangeResult{}, nil
	}

	totals := make([]float64, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			fromUnix, toUnix := a.cal.UnixRange(chunk.From, chunk.To)
			rev, err := a.fetcher.FetchRevenue(gctx, fromUnix, toUnix)
			if err != nil {
				return fmt.Errorf("revenue: chunk %s..%s: %w", a.cal.Format(chunk.From), a.cal.Format(chunk.To), err)
			}
			totals[i] = rev.Total
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RangeResult{}, err
	}

	var total float64
	for _, v := range totals {
		total += v
	}
	return RangeResult{Total: total, Chunks: len(chunks)}, nil
}
