package kpi

import "math"

// Compare builds the comparison block for current against lastYear.
func Compare(current, lastYear float64) Comparison {
	diff := current - lastYear
	c := Comparison{
		Current:   current,
		LastYear:  lastYear,
		Diff:      diff,
		Direction: DirectionFlat,
		DiffPct:   Percent(diff, lastYear),
	}
	switch {
	case diff > 0:
		c.Direction = DirectionUp
	case diff < 0:
		c.Direction = DirectionDown
	}
	return c
}

// Percent returns part/whole*100, or nil when the quotient is undefined.
func Percent(part, whole float64) *float64 {
	if whole == 0 || !finite(whole) || !finite(part) {
		return nil
	}
	p := part / whole * 100
	return &p
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
