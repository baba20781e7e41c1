package inputs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kitchenboard/kitchenboard/internal/dates"
	"github.com/kitchenboard/kitchenboard/internal/revenue"
	"github.com/kitchenboard/kitchenboard/internal/shared"
)

// Store is the persistence contract the service needs.
type Store interface {
	Upsert(ctx context.Context, in DailyInput) (DailyInput, error)
	SetTotalRevenue(ctx context.Context, date string, total float64) (DailyInput, error)
	List(ctx context.Context) ([]DailyInput, error)
	ListRange(ctx context.Context, from, to string) ([]DailyInput, error)
}

// RevenueSource fetches an uncached POS total for a date range.
type RevenueSource interface {
	Fresh(ctx context.Context, from, to time.Time) (revenue.RangeResult, error)
}

// Service validates and persists daily inputs.
type Service struct {
	store    Store
	revenue  RevenueSource
	cal      *dates.Calendar
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService constructs the daily input service. revenue may be nil when the
// POS vendor is not configured.
func NewService(store Store, rev RevenueSource, cal *dates.Calendar, logger *slog.Logger) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, revenue: rev, cal: cal, validate: v, logger: logger}
}

// Save validates in and upserts it as the complete row for its date.
func (s *Service) Save(ctx context.Context, in DailyInput) (DailyInput, error) {
	in.Date = strings.TrimSpace(in.Date)
	if err := s.check(in); err != nil {
		return DailyInput{}, err
	}
	return s.store.Upsert(ctx, in)
}

// List returns every stored row in ascending date order.
func (s *Service) List(ctx context.Context) ([]DailyInput, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []DailyInput{}
	}
	return rows, nil
}

// ListRange returns stored rows between two ISO dates.
func (s *Service) ListRange(ctx context.Context, from, to string) ([]DailyInput, error) {
	return s.store.ListRange(ctx, from, to)
}

// ImportPOS fetches the vendor total for date, bypassing the range cache, and
// overwrites only totalRevenue on that date's row.
func (s *Service) ImportPOS(ctx context.Context, date string) (DailyInput, error) {
	day, err := s.cal.Parse(strings.TrimSpace(date))
	if err != nil {
		return DailyInput{}, shared.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	if s.revenue == nil {
		return DailyInput{}, shared.ConfigError{Settings: []string{"POS_BASE_URL", "POS_API_TOKEN", "POS_VENUE_ID"}}
	}
	res, err := s.revenue.Fresh(ctx, day, day)
	if err != nil {
		return DailyInput{}, fmt.Errorf("inputs: import pos %s: %w", s.cal.Format(day), err)
	}
	row, err := s.store.SetTotalRevenue(ctx, s.cal.Format(day), res.Total)
	if err != nil {
		return DailyInput{}, err
	}
	s.logger.Info("pos revenue imported",
		slog.String("date", row.Date),
		slog.Float64("total", res.Total),
		slog.Int("chunks", res.Chunks),
	)
	return row, nil
}

func (s *Service) check(in DailyInput) error {
	if !dates.IsISODate(in.Date) {
		return shared.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return shared.ValidationError{Field: fe.Field(), Reason: "failed " + fe.Tag() + " check"}
		}
		return shared.ValidationError{Reason: err.Error()}
	}
	for field, v := range map[string]float64{
		"totalRevenue":  in.TotalRevenue,
		"woltRevenue":   in.WoltRevenue,
		"laborCost":     in.LaborCost,
		"bcGroceryCost": in.BCGroceryCost,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return shared.ValidationError{Field: field, Reason: "must be a finite number"}
		}
	}
	return nil
}
