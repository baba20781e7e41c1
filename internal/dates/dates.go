// Package dates converts business dates into calendar windows and Unix ranges
// in the venue's fixed timezone.
package dates

import (
	"fmt"
	"regexp"
	"time"
	_ "time/tzdata"
)

// Layout is the ISO date layout used on every API surface.
const Layout = "2006-01-02"

// DefaultTimezone is the venue's local timezone.
const DefaultTimezone = "Europe/Copenhagen"

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Calendar resolves dates in one location.
type Calendar struct {
	loc *time.Location
}

// Range is an inclusive span of calendar days.
type Range struct {
	From time.Time
	To   time.Time
}

// NewCalendar loads the named timezone.
func NewCalendar(tz string) (*Calendar, error) {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("dates: load location %q: %w", tz, err)
	}
	return &Calendar{loc: loc}, nil
}

// MustCalendar is NewCalendar for static timezones; it panics on error.
func MustCalendar(tz string) *Calendar {
	c, err := NewCalendar(tz)
	if err != nil {
		panic(err)
	}
	return c
}

// Location returns the calendar's timezone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// IsISODate reports whether s has the YYYY-MM-DD shape.
func IsISODate(s string) bool {
	return isoDate.MatchString(s)
}

// Parse reads a strict YYYY-MM-DD date at local midnight.
func (c *Calendar) Parse(s string) (time.Time, error) {
	if !isoDate.MatchString(s) {
		return time.Time{}, fmt.Errorf("dates: %q is not YYYY-MM-DD", s)
	}
	t, err := time.ParseInLocation(Layout, s, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("dates: parse %q: %w", s, err)
	}
	return t, nil
}

// Format renders t as YYYY-MM-DD in the calendar's timezone.
func (c *Calendar) Format(t time.Time) string {
	return t.In(c.loc).Format(Layout)
}

// Day truncates t to local midnight.
func (c *Calendar) Day(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// AddDays shifts a date by n calendar days, staying on local midnight across
// DST changes.
func (c *Calendar) AddDays(t time.Time, n int) time.Time {
	t = c.Day(t)
	return time.Date(t.Year(), t.Month(), t.Day()+n, 0, 0, 0, 0, c.loc)
}

// WeekRange returns Monday..Sunday around d.
func (c *Calendar) WeekRange(d time.Time) Range {
	d = c.Day(d)
	offset := (int(d.Weekday()) + 6) % 7
	from := c.AddDays(d, -offset)
	return Range{From: from, To: c.AddDays(from, 6)}
}

// MonthStart returns the 1st of d's month.
func (c *Calendar) MonthStart(d time.Time) time.Time {
	d = d.In(c.loc)
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, c.loc)
}

// MonthEnd returns the last day of d's month.
func (c *Calendar) MonthEnd(d time.Time) time.Time {
	start := c.MonthStart(d)
	return time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, c.loc)
}

// YearStart returns January 1st of d's year.
func (c *Calendar) YearStart(d time.Time) time.Time {
	return time.Date(d.In(c.loc).Year(), time.January, 1, 0, 0, 0, 0, c.loc)
}

// YearEnd returns December 31st of d's year.
func (c *Calendar) YearEnd(d time.Time) time.Time {
	return time.Date(d.In(c.loc).Year(), time.December, 31, 0, 0, 0, 0, c.loc)
}

// SameWeekdayLastYear is the date 52 weeks earlier, which keeps the weekday.
func (c *Calendar) SameWeekdayLastYear(d time.Time) time.Time {
	return c.AddDays(d, -364)
}

// SameDateLastYear is the calendar-identical date one year earlier. Feb 29
// maps to Feb 28.
func (c *Calendar) SameDateLastYear(d time.Time) time.Time {
	d = c.Day(d)
	year := d.Year() - 1
	day := d.Day()
	if d.Month() == time.February && day == 29 {
		day = 28
	}
	return time.Date(year, d.Month(), day, 0, 0, 0, 0, c.loc)
}

// UnixRange converts inclusive dates into [from 00:00:00, to 23:59:59] local
// time as Unix seconds.
func (c *Calendar) UnixRange(from, to time.Time) (int64, int64) {
	start := c.Day(from)
	end := c.AddDays(to, 1).Add(-time.Second)
	return start.Unix(), end.Unix()
}

// Days counts the days in the inclusive span; zero when from is after to.
func (c *Calendar) Days(from, to time.Time) int {
	from, to = c.Day(from), c.Day(to)
	if from.After(to) {
		return 0
	}
	n := 0
	for d := from; !d.After(to); d = c.AddDays(d, 1) {
		n++
	}
	return n
}

// Chunks partitions [from, to] into consecutive ranges of at most maxDays
// days. The cursor moves maxDays days per step so chunks never overlap, and
// the last chunk is clipped to to.
func (c *Calendar) Chunks(from, to time.Time, maxDays int) []Range {
	if maxDays < 1 {
		maxDays = 1
	}
	from, to = c.Day(from), c.Day(to)
	if from.After(to) {
		return nil
	}
	var out []Range
	for cursor := from; !cursor.After(to); cursor = c.AddDays(cursor, maxDays) {
		end := c.AddDays(cursor, maxDays-1)
		if end.After(to) {
			end = to
		}
		out = append(out, Range{From: cursor, To: end})
	}
	return out
}

// Each calls fn for every day in [from, to].
func (c *Calendar) Each(from, to time.Time, fn func(time.Time)) {
	for d := c.Day(from); !d.After(c.Day(to)); d = c.AddDays(d, 1) {
		fn(d)
	}
}

// Contains reports whether d falls inside r.
func (r Range) Contains(d time.Time) bool {
	return !d.Before(r.From) && !d.After(r.To)
}
