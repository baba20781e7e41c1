package labor

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// PayLine is one parsed pay-slip row.
type PayLine struct {
	Employee string
	Date     string
	Amount   decimal.Decimal
}

// ParsePayslips walks the export in document order: every .employee-info
// block names an employee and the first table.payslip after it holds that
// employee's rows. Rows without a valid date or amount are skipped.
func ParsePayslips(r io.Reader) ([]PayLine, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("labor: read pay slips: %w", err)
	}

	var (
		lines   []PayLine
		current string
	)
	doc.Find(".employee-info, table.payslip").Each(func(_ int, sel *goquery.Selection) {
		if sel.HasClass("employee-info") {
			current = NormalizeName(sel.Find(".employee-name").First().Text())
			return
		}
		if current == "" {
			return
		}
		sel.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 2 {
				return
			}
			date, ok := ParseDate(cellText(row, ".date", cells, 0))
			if !ok {
				return
			}
			amount, err := ParseAmount(cellText(row, ".amount", cells, cells.Length()-1))
			if err != nil {
				return
			}
			lines = append(lines, PayLine{Employee: current, Date: date, Amount: amount})
		})
		current = ""
	})
	return lines, nil
}
