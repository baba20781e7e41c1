package labor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

var (
	amountNoise = regexp.MustCompile(`[^0-9,\-]`)
	vendorDate  = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	isoDate     = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
)

// ParseAmount reads a vendor currency string such as "1.234,56 kr.".
// Everything except digits, comma and minus is dropped and the comma is the
// decimal separator.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := amountNoise.ReplaceAllString(raw, "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)
	if strings.Trim(cleaned, "-.") == "" {
		return decimal.Zero, fmt.Errorf("labor: no amount in %q", raw)
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("labor: parse amount %q: %w", raw, err)
	}
	return amount, nil
}

// ParseDate accepts the vendor's D.M.YYYY form or ISO and returns ISO.
func ParseDate(raw string) (string, bool) {
	var y, m, d int
	if match := vendorDate.FindStringSubmatch(raw); match != nil {
		d, m, y = atoi(match[1]), atoi(match[2]), atoi(match[3])
	} else if match := isoDate.FindStringSubmatch(raw); match != nil {
		y, m, d = atoi(match[1]), atoi(match[2]), atoi(match[3])
	} else {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// ParseTimeRange splits "10:00 - 18:00" into its two ends. En and em dashes
// count as the separator too.
func ParseTimeRange(raw string) (string, string, bool) {
	raw = strings.NewReplacer("–", "-", "—", "-").Replace(raw)
	from, to, ok := strings.Cut(raw, "-")
	if !ok {
		return "", "", false
	}
	from, to = cleanText(from), cleanText(to)
	if from == "" || to == "" {
		return "", "", false
	}
	return from, to, true
}

// NormalizeName folds Unicode composition and whitespace so the same
// employee exported twice compares equal.
func NormalizeName(raw string) string {
	return cleanText(norm.NFC.String(raw))
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, " ", " ")), " ")
}

// atoi is only fed regex-matched digit groups.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
