package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, c *Calendar, s string) time.Time {
	t.Helper()
	d, err := c.Parse(s)
	require.NoError(t, err)
	return d
}

func TestParseRejectsMalformedDates(t *testing.T) {
	c := MustCalendar(DefaultTimezone)
	for _, in := range []string{"", "2025-1-10", "10.01.2025", "2025-02-30", "2025-01-10T00:00:00Z"} {
		_, err := c.Parse(in)
		assert.Error(t, err, in)
	}
	d := mustParse(t, c, "2025-01-10")
	assert.Equal(t, "2025-01-10", c.Format(d))
	assert.Equal(t, c.Location(), d.Location())
}

func TestWeekRangeIsMondayToSunday(t *testing.T) {
	c := MustCalendar(DefaultTimezone)
	for _, in := range []string{"2025-06-16", "2025-06-18", "2025-06-22"} {
		r := c.WeekRange(mustParse(t, c, in))
		assert.Equal(t, "2025-06-16", c.Format(r.From), in)
		assert.Equal(t, "2025-06-22", c.Format(r.To), in)
		assert.Equal(t, time.Monday, r.From.Weekday())
		assert.Equal(t, time.Sunday, r.To.Weekday())
	}
}

func TestMonthAndYearBounds(t *testing.T) {
	c := MustCalendar(DefaultTimezone)
	d := mustParse(t, c, "2024-02-15")
	assert.Equal(t, "2024-02-01", c.Format(c.MonthStart(d)))
	assert.Equal(t, "2024-02-29", c.Format(c.MonthEnd(d)))
	assert.Equal(t, "2024-01-01", c.Format(c.YearStart(d)))
	assert.Equal(t, "2024-12-31", c.Format(c.YearEnd(d)))
}

func TestSameWeekdayLastYear(t *testing.T) {
	c := MustCalendar(DefaultTimezone)
	d := mustParse(t, c, "2025-06-16")
	ref := c.SameWeekdayLastYear(d)
	assert.Equal(t, "2024-06-17", c.Format(ref))
	assert.Equal(t, d.Weekday(), ref.Weekday())
	assert.Equal(t, 365, c.Days(ref, d))
}

func TestSameDateLastYearClampsLeapDay(t *testing.T) {
	c := MustCalendar(DefaultTimezone)
	assert.Equal(t, "2024-06-16", c.Format(c.SameDateLastYear(mustParse(t, c, "2025-06-16"))))
	assert.Equal(t, "2023-02-28", c.Format(c.SameDateLastYear(mustParse(t, c, "2024-02-29"))))
}

func TestUnixRangeCoversWholeLocalDays(t *testing.T) {
	c := MustCalendar(DefaultTimezone)
	from, to := c.UnixRange(mustParse(t, c, "2025-01-10"), mustParse(t, c, "2025-01-10"))
	assert.Equal(t, int64(24*60*60-1), to-from)

	// DST starts on 2025-03-30 in Copenhagen; that day has 23 hours.
	from, to = c.UnixRange(mustParse(t, c, "2025-03-30"), mustParse(t, c, "2025-03-30"))
	assert.Equal(t, int64(23*60*60-1), to-from)

	start := time.Unix(from, 0).In(c.Location())
	assert.Equal(t, 0, start.Hour())
}

func TestChunksCoverRangeWithoutGapOrOverlap(t *testing.T) {
	c := MustCalendar(DefaultTimezone)
	start := mustParse(t, c, "2024-12-20")
	for span := 0; span < 40; span++ {
		for _, maxDays := range []int{1, 2, 3, 7} {
			from := start
			to := c.AddDays(start, span)
			chunks := c.Chunks(from, to, maxDays)
			require.NotEmpty(t, chunks)

			covered := 0
			expectNext := from
			for _, ch := range chunks {
				assert.True(t, ch.From.Equal(expectNext), "chunk must start right after previous")
				assert.False(t, ch.To.Before(ch.From))
				assert.LessOrEqual(t, c.Days(ch.From, ch.To), maxDays)
				covered += c.Days(ch.From, ch.To)
				expectNext = c.AddDays(ch.To, 1)
			}
			assert.Equal(t, c.Days(from, to), covered)
			assert.True(t, chunks[len(chunks)-1].To.Equal(to))
		}
	}
}

func TestChunksEmptyForInvertedRange(t *testing.T) {
	c := MustCalendar(DefaultTimezone)
	assert.Empty(t, c.Chunks(mustParse(t, c, "2025-01-11"), mustParse(t, c, "2025-01-10"), 2))
	assert.Equal(t, 0, c.Days(mustParse(t, c, "2025-01-11"), mustParse(t, c, "2025-01-10")))
}

func TestSingleDayIsOneChunk(t *testing.T) {
	c := MustCalendar(DefaultTimezone)
	d := mustParse(t, c, "2025-01-10")
	chunks := c.Chunks(d, d, 2)
	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].From.Equal(d))
	assert.True(t, chunks[0].To.Equal(d))
}
