package labor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"1.234,56 kr.": "1234.56",
		"0,00":         "0",
		"450,00":       "450",
		"  12 345,5 ":  "12345.5",
		"-75,25 DKK":   "-75.25",
		"kr. 99":       "99",
	}
	for in, want := range cases {
		got, err := ParseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	for _, in := range []string{"N/A", "", "kr.", "-", "1,2,3"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, in)
	}
}

func TestParseDate(t *testing.T) {
	cases := map[string]string{
		"1.3.2025":     "2025-03-01",
		"01.03.2025":   "2025-03-01",
		"Sat 1.3.2025": "2025-03-01",
		"2025-03-01":   "2025-03-01",
		"29.2.2024":    "2024-02-29",
	}
	for in, want := range cases {
		got, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"", "Total", "31.2.2025", "2025-02-30", "1/3/2025"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, in)
	}
}

func TestParseTimeRange(t *testing.T) {
	from, to, ok := ParseTimeRange(" 10:00 – 18:00 ")
	require.True(t, ok)
	assert.Equal(t, "10:00", from)
	assert.Equal(t, "18:00", to)

	for _, in := range []string{"10:00", "10:00 -", "- 18:00", ""} {
		_, _, ok := ParseTimeRange(in)
		assert.False(t, ok, in)
	}
}

func TestNormalizeName(t *testing.T) {
	decomposed := "Ande\u0301n  \n Birk"
	assert.Equal(t, "And\u00e9n Birk", NormalizeName(decomposed))
	assert.NotEqual(t, "And\u00e9n Birk", decomposed)
}
