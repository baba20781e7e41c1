package labor

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// ParseTimesheet extracts shifts from the vendor timesheet export. Rows
// missing a date, a time range or a readable amount are header or summary
// rows and are skipped.
func ParseTimesheet(r io.Reader) ([]ParsedShift, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("labor: read timesheet: %w", err)
	}

	var shifts []ParsedShift
	doc.Find(".shift-row").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		dateText := cellText(row, ".duty-date", cells, 0)
		timeText := cellText(row, ".duty-time", cells, 1)
		amountText := cellText(row, ".duty-amount", cells, cells.Length()-1)

		date, ok := ParseDate(dateText)
		if !ok {
			return
		}
		from, to, ok := ParseTimeRange(timeText)
		if !ok {
			return
		}
		amount, err := ParseAmount(amountText)
		if err != nil {
			return
		}
		shifts = append(shifts, ParsedShift{Date: date, TimeFrom: from, TimeTo: to, Amount: amount})
	})
	return shifts, nil
}

// cellText reads the cell matching class, falling back to the cell at
// index when the export omits classes.
func cellText(row *goquery.Selection, class string, cells *goquery.Selection, index int) string {
	if sel := row.Find(class).First(); sel.Length() > 0 {
		return cleanText(sel.Text())
	}
	if index < 0 || index >= cells.Length() {
		return ""
	}
	return cleanText(cells.Eq(index).Text())
}
