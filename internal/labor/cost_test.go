package labor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenboard/kitchenboard/internal/dates"
	"github.com/kitchenboard/kitchenboard/internal/shared"
)

func costFixture() *memoryStore {
	return &memoryStore{entries: []Entry{
		{Employee: "Alice", Date: "2024-12-31", Amount: amount("1000")},
		{Employee: "Alice", Date: "2025-06-01", Amount: amount("10")},
		{Employee: "Alice", Date: "2025-06-16", Amount: amount("100")},
		{Employee: "Bo", Date: "2025-06-22", Amount: amount("200")},
		{Employee: "Bo", Date: "2025-06-23", Amount: amount("50")},
	}}
}

func TestCostReportPeriods(t *testing.T) {
	cal := dates.MustCalendar(dates.DefaultTimezone)
	calc := NewCostCalculator(costFixture(), cal, DefaultUpliftFactor)
	ctx := context.Background()

	day, err := cal.Parse("2025-06-18")
	require.NoError(t, err)

	week, err := calc.Report(ctx, PeriodWeek, day)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-16", week.WeekStart)
	assert.Equal(t, "2025-06-22", week.WeekEnd)
	assert.Equal(t, 300.0, week.BaseCost)
	assert.Equal(t, 337.5, week.LaborCost)
	assert.Equal(t, 12.5, week.UpliftPct)

	month, err := calc.Report(ctx, PeriodMonth, day)
	require.NoError(t, err)
	assert.Equal(t, "2025-06", month.Month)
	assert.Equal(t, "2025-06-01", month.From)
	assert.Equal(t, "2025-06-30", month.To)
	assert.Equal(t, 405.0, month.LaborCost)

	year, err := calc.Report(ctx, PeriodYear, day)
	require.NoError(t, err)
	assert.Equal(t, 2025, year.Year)
	assert.Equal(t, 360.0, year.BaseCost)

	single, err := calc.Report(ctx, PeriodDay, day)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-18", single.Date)
	assert.Zero(t, single.LaborCost)
}

func TestCostReportRejectsUnknownPeriod(t *testing.T) {
	cal := dates.MustCalendar(dates.DefaultTimezone)
	day, err := cal.Parse("2025-06-18")
	require.NoError(t, err)

	_, err = NewCostCalculator(costFixture(), cal, 0).Report(context.Background(), "quarter", day)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCostReportCustomFactor(t *testing.T) {
	cal := dates.MustCalendar(dates.DefaultTimezone)
	day, err := cal.Parse("2025-06-16")
	require.NoError(t, err)

	report, err := NewCostCalculator(costFixture(), cal, 1.3).Report(context.Background(), PeriodDay, day)
	require.NoError(t, err)
	assert.Equal(t, 130.0, report.LaborCost)
	assert.Equal(t, 30.0, report.UpliftPct)
}
