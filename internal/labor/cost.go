package labor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kitchenboard/kitchenboard/internal/dates"
	"github.com/kitchenboard/kitchenboard/internal/shared"
)

// DefaultUpliftFactor loads raw pay with holiday pay and overhead.
const DefaultUpliftFactor = 1.125

// Periods accepted by CostReport.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// CostReport is the labor cost of one period.
type CostReport struct {
	Period    string  `json:"period"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Date      string  `json:"date,omitempty"`
	WeekStart string  `json:"weekStart,omitempty"`
	WeekEnd   string  `json:"weekEnd,omitempty"`
	Month     string  `json:"month,omitempty"`
	Year      int     `json:"year,omitempty"`
	BaseCost  float64 `json:"baseCost"`
	LaborCost float64 `json:"laborCost"`
	UpliftPct float64 `json:"upliftPct"`
}

// CostCalculator reports uplifted labor cost per calendar period.
type CostCalculator struct {
	store  Store
	cal    *dates.Calendar
	uplift decimal.Decimal
}

// NewCostCalculator constructs a calculator. A non-positive factor falls
// back to DefaultUpliftFactor.
func NewCostCalculator(store Store, cal *dates.Calendar, factor float64) *CostCalculator {
	if factor <= 0 {
		factor = DefaultUpliftFactor
	}
	return &CostCalculator{store: store, cal: cal, uplift: decimal.NewFromFloat(factor)}
}

// Report sums labor entries over the period containing date.
func (c *CostCalculator) Report(ctx context.Context, period string, date time.Time) (CostReport, error) {
	d := c.cal.Day(date)
	report := CostReport{Period: period}
	var from, to time.Time
	switch period {
	case PeriodDay:
		from, to = d, d
		report.Date = c.cal.Format(d)
	case PeriodWeek:
		w := c.cal.WeekRange(d)
		from, to = w.From, w.To
		report.WeekStart, report.WeekEnd = c.cal.Format(from), c.cal.Format(to)
	case PeriodMonth:
		from, to = c.cal.MonthStart(d), c.cal.MonthEnd(d)
		report.Month = from.Format("2006-01")
	case PeriodYear:
		from, to = c.cal.YearStart(d), c.cal.YearEnd(d)
		report.Year = from.Year()
	default:
		return CostReport{}, shared.ValidationError{Field: "period", Reason: "must be day, week, month or year"}
	}
	report.From, report.To = c.cal.Format(from), c.cal.Format(to)

	base, err := c.store.SumBetween(ctx, report.From, report.To)
	if err != nil {
		return CostReport{}, err
	}
	report.BaseCost = base.Round(2).InexactFloat64()
	report.LaborCost = base.Mul(c.uplift).Round(2).InexactFloat64()
	report.UpliftPct = c.uplift.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)).Round(4).InexactFloat64()
	return report, nil
}
