// Package inputs stores the manually entered daily figures and the POS total
// imported for each business day.
package inputs

import "time"

// DailyInput is the one row kept per calendar date.
type DailyInput struct {
	Date          string    `json:"date" validate:"required,datetime=2006-01-02"`
	TotalRevenue  float64   `json:"totalRevenue"`
	WoltRevenue   float64   `json:"woltRevenue" validate:"gte=0"`
	LaborCost     float64   `json:"laborCost" validate:"gte=0"`
	BCGroceryCost float64   `json:"bcGroceryCost" validate:"gte=0"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Totals sums the revenue columns of rows whose date falls in [from, to].
// Dates compare lexically because they are ISO formatted.
type Totals struct {
	POS  float64
	Wolt float64
}

// SumRange adds up rows between from and to inclusive.
func SumRange(rows []DailyInput, from, to string) Totals {
	var t Totals
	for _, row := range rows {
		if row.Date < from || row.Date > to {
			continue
		}
		t.POS += row.TotalRevenue
		t.Wolt += row.WoltRevenue
	}
	return t
}

// Find returns the row for date.
func Find(rows []DailyInput, date string) (DailyInput, bool) {
	for _, row := range rows {
		if row.Date == date {
			return row, true
		}
	}
	return DailyInput{}, false
}
