// Package kpi composes the dashboard snapshot: revenue per calendar window,
// year-over-year comparisons and daily cost ratios.
package kpi

import "time"

// Direction values of a Comparison.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
	DirectionFlat = "flat"
)

// Sources reported in Meta.Source and TodayMeta.Source.
const (
	SourceLive     = "live"
	SourceStored   = "stored"
	SourceFallback = "fallback"
	SourceCache    = "cache"
)

// Comparison contrasts a current figure with its last-year reference.
// DiffPct is nil when the reference is zero.
type Comparison struct {
	Current   float64  `json:"current"`
	LastYear  float64  `json:"lastYear"`
	Diff      float64  `json:"diff"`
	Direction string   `json:"direction"`
	DiffPct   *float64 `json:"diffPct"`
}

// DateRange is an inclusive ISO date span.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Revenue holds POS plus delivery revenue per window.
type Revenue struct {
	Today                   float64   `json:"today"`
	Week                    float64   `json:"week"`
	WeekToDate              float64   `json:"weekToDate"`
	Month                   float64   `json:"month"`
	MonthToDate             float64   `json:"monthToDate"`
	Year                    float64   `json:"year"`
	LastYearSameDay         float64   `json:"lastYearSameDay"`
	LastYearSameWeekday     float64   `json:"lastYearSameWeekday"`
	LastYearSameWeekdayDate string    `json:"lastYearSameWeekdayDate"`
	LastYearWeek            float64   `json:"lastYearWeek"`
	LastYearWeekRange       DateRange `json:"lastYearWeekRange"`
	LastYearMonth           float64   `json:"lastYearMonth"`
	LastYearYear            float64   `json:"lastYearYear"`
}

// Comparisons groups the year-over-year blocks.
type Comparisons struct {
	TodayVsLastYearSameWeekday Comparison `json:"todayVsLastYearSameWeekday"`
	TodayVsLastYearSameDay     Comparison `json:"todayVsLastYearSameDay"`
	WeekVsLastYearWeek         Comparison `json:"weekVsLastYearWeek"`
	MonthVsLastYearMonth       Comparison `json:"monthVsLastYearMonth"`
	YearVsLastYearYear         Comparison `json:"yearVsLastYearYear"`
}

// Costs relates the day's entered costs to its revenue. Percentages are nil
// when the day has no revenue.
type Costs struct {
	LaborCost     float64  `json:"laborCost"`
	BCGroceryCost float64  `json:"bcGroceryCost"`
	LaborPct      *float64 `json:"laborPct"`
	FoodPct       *float64 `json:"foodPct"`
}

// TodayMeta tells the frontend which day's figure revenue.today shows.
type TodayMeta struct {
	Date   string `json:"date"`
	Source string `json:"source"`
	Reason string `json:"reason,omitempty"`
}

// Meta describes freshness and provenance of a snapshot.
type Meta struct {
	Cached          bool      `json:"cached"`
	CacheAgeSeconds *float64  `json:"cacheAgeSeconds,omitempty"`
	CacheTTLSeconds *float64  `json:"cacheTtlSeconds,omitempty"`
	Source          string    `json:"source"`
	Message         string    `json:"message,omitempty"`
	Today           TodayMeta `json:"today"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// Snapshot is the /kpis response body.
type Snapshot struct {
	Date        string      `json:"date"`
	Revenue     Revenue     `json:"revenue"`
	Comparisons Comparisons `json:"comparisons"`
	Costs       Costs       `json:"costs"`
	Meta        Meta        `json:"meta"`
}
