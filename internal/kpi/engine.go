package kpi

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kitchenboard/kitchenboard/internal/dates"
	"github.com/kitchenboard/kitchenboard/internal/inputs"
	"github.com/kitchenboard/kitchenboard/internal/revenue"
)

const (
	defaultFallbackDays = 7
	windowConcurrency   = 2
)

// RangeRevenue returns POS revenue for an inclusive date range.
type RangeRevenue interface {
	Range(ctx context.Context, from, to time.Time) (revenue.RangeResult, error)
}

// InputReader loads stored daily inputs.
type InputReader interface {
	ListRange(ctx context.Context, from, to string) ([]inputs.DailyInput, error)
}

// Engine computes snapshots. Without a POS source it reports the stored
// totalRevenue column instead of live figures.
type Engine struct {
	cal          *dates.Calendar
	pos          RangeRevenue
	inputs       InputReader
	now          func() time.Time
	fallbackDays int
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithNow overrides the clock used to decide which day is in progress.
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithFallbackDays bounds how far back today's figure may fall back.
func WithFallbackDays(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.fallbackDays = n
		}
	}
}

// NewEngine constructs an Engine. pos may be nil.
func NewEngine(cal *dates.Calendar, pos RangeRevenue, in InputReader, opts ...EngineOption) *Engine {
	e := &Engine{
		cal:          cal,
		pos:          pos,
		inputs:       in,
		now:          time.Now,
		fallbackDays: defaultFallbackDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type window int

const (
	winToday window = iota
	winWeek
	winWeekToDate
	winMonth
	winYear
	winLastYearSameDay
	winLastYearSameWeekday
	winLastYearWeek
	winLastYearMonth
	winLastYearYear
	windowCount
)

// windowsFor lays out every range a snapshot for d needs.
func (e *Engine) windowsFor(d time.Time) [windowCount]dates.Range {
	c := e.cal
	sameDay := c.SameDateLastYear(d)
	sameWeekday := c.SameWeekdayLastYear(d)
	week := c.WeekRange(d)

	var w [windowCount]dates.Range
	w[winToday] = dates.Range{From: d, To: d}
	w[winWeek] = week
	w[winWeekToDate] = dates.Range{From: week.From, To: d}
	w[winMonth] = dates.Range{From: c.MonthStart(d), To: d}
	w[winYear] = dates.Range{From: c.YearStart(d), To: d}
	w[winLastYearSameDay] = dates.Range{From: sameDay, To: sameDay}
	w[winLastYearSameWeekday] = dates.Range{From: sameWeekday, To: sameWeekday}
	w[winLastYearWeek] = c.WeekRange(sameWeekday)
	w[winLastYearMonth] = dates.Range{From: c.MonthStart(sameDay), To: sameDay}
	w[winLastYearYear] = dates.Range{From: c.YearStart(sameDay), To: sameDay}
	return w
}

// Compute builds the snapshot for date.
func (e *Engine) Compute(ctx context.Context, date time.Time) (Snapshot, error) {
	d := e.cal.Day(date)
	dayKey := e.cal.Format(d)
	windows := e.windowsFor(d)

	from, to := windows[0].From, windows[0].To
	for _, w := range windows[1:] {
		if w.From.Before(from) {
			from = w.From
		}
		if w.To.After(to) {
			to = w.To
		}
	}
	// Include the fallback horizon so walking back needs no second query.
	if fb := e.cal.AddDays(d, -e.fallbackDays); fb.Before(from) {
		from = fb
	}
	rows, err := e.inputs.ListRange(ctx, e.cal.Format(from), e.cal.Format(to))
	if err != nil {
		return Snapshot{}, fmt.Errorf("kpi: load inputs: %w", err)
	}

	var pos [windowCount]float64
	source := SourceStored
	if e.pos != nil {
		source = SourceLive
		if err := e.fetchWindows(ctx, windows, &pos); err != nil {
			return Snapshot{}, err
		}
	} else {
		for i, w := range windows {
			pos[i] = inputs.SumRange(rows, e.cal.Format(w.From), e.cal.Format(w.To)).POS
		}
	}

	var total [windowCount]float64
	for i, w := range windows {
		total[i] = pos[i] + inputs.SumRange(rows, e.cal.Format(w.From), e.cal.Format(w.To)).Wolt
	}

	today := TodayMeta{Date: dayKey, Source: source}
	todayRevenue := total[winToday]
	if e.pos != nil && pos[winToday] == 0 && dayKey == e.cal.Format(e.now()) {
		day, amount, found, err := e.fallback(ctx, d)
		if err != nil {
			return Snapshot{}, err
		}
		if found {
			fbKey := e.cal.Format(day)
			todayRevenue = amount + inputs.SumRange(rows, fbKey, fbKey).Wolt
			today = TodayMeta{
				Date:   fbKey,
				Source: SourceFallback,
				Reason: fmt.Sprintf("no POS revenue recorded for %s yet; showing %s", dayKey, fbKey),
			}
		}
	}

	snap := Snapshot{
		Date: dayKey,
		Revenue: Revenue{
			Today:                   todayRevenue,
			Week:                    total[winWeek],
			WeekToDate:              total[winWeekToDate],
			Month:                   total[winMonth],
			MonthToDate:             total[winMonth],
			Year:                    total[winYear],
			LastYearSameDay:         total[winLastYearSameDay],
			LastYearSameWeekday:     total[winLastYearSameWeekday],
			LastYearSameWeekdayDate: e.cal.Format(windows[winLastYearSameWeekday].From),
			LastYearWeek:            total[winLastYearWeek],
			LastYearWeekRange: DateRange{
				From: e.cal.Format(windows[winLastYearWeek].From),
				To:   e.cal.Format(windows[winLastYearWeek].To),
			},
			LastYearMonth: total[winLastYearMonth],
			LastYearYear:  total[winLastYearYear],
		},
		Meta: Meta{
			Source:      source,
			Today:       today,
			GeneratedAt: e.now(),
		},
	}
	snap.Comparisons = Comparisons{
		TodayVsLastYearSameWeekday: Compare(todayRevenue, total[winLastYearSameWeekday]),
		TodayVsLastYearSameDay:     Compare(todayRevenue, total[winLastYearSameDay]),
		WeekVsLastYearWeek:         Compare(total[winWeek], total[winLastYearWeek]),
		MonthVsLastYearMonth:       Compare(total[winMonth], total[winLastYearMonth]),
		YearVsLastYearYear:         Compare(total[winYear], total[winLastYearYear]),
	}

	if row, ok := inputs.Find(rows, dayKey); ok {
		snap.Costs.LaborCost = row.LaborCost
		snap.Costs.BCGroceryCost = row.BCGroceryCost
	}
	snap.Costs.LaborPct = Percent(snap.Costs.LaborCost, total[winToday])
	snap.Costs.FoodPct = Percent(snap.Costs.BCGroceryCost, total[winToday])
	return snap, nil
}

// fetchWindows queries POS revenue for every window, at most
// windowConcurrency ranges at a time.
func (e *Engine) fetchWindows(ctx context.Context, windows [windowCount]dates.Range, out *[windowCount]float64) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(windowConcurrency)
	for i, w := range windows {
		g.Go(func() error {
			res, err := e.pos.Range(gctx, w.From, w.To)
			if err != nil {
				return fmt.Errorf("kpi: revenue %s..%s: %w", e.cal.Format(w.From), e.cal.Format(w.To), err)
			}
			out[i] = res.Total
			return nil
		})
	}
	return g.Wait()
}

// fallback walks back from d to the most recent day with POS revenue.
func (e *Engine) fallback(ctx context.Context, d time.Time) (time.Time, float64, bool, error) {
	for k := 1; k <= e.fallbackDays; k++ {
		day := e.cal.AddDays(d, -k)
		res, err := e.pos.Range(ctx, day, day)
		if err != nil {
			return time.Time{}, 0, false, fmt.Errorf("kpi: fallback revenue %s: %w", e.cal.Format(day), err)
		}
		if res.Total != 0 {
			return day, res.Total, true, nil
		}
	}
	return time.Time{}, 0, false, nil
}
