package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kitchenboard/kitchenboard/internal/dates"
	"github.com/kitchenboard/kitchenboard/internal/inputs"
	jobmetrics "github.com/kitchenboard/kitchenboard/internal/jobs"
	"github.com/kitchenboard/kitchenboard/internal/shared"
)

const (
	// lockTTL covers one day's import. Backfills refresh it per day.
	lockTTL     = 5 * time.Minute
	maxBackfill = 366
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DayImporter writes one day's POS total to storage.
type DayImporter interface {
	ImportPOS(ctx context.Context, date string) (inputs.DailyInput, error)
}

// POSImportJob handles the day import and backfill tasks.
type POSImportJob struct {
	Importer DayImporter
	Locker   Locker
	Calendar *dates.Calendar
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewPOSImportJob constructs the job handler.
func NewPOSImportJob(importer DayImporter, locker Locker, cal *dates.Calendar, logger *slog.Logger, metrics *jobmetrics.Metrics) *POSImportJob {
	return &POSImportJob{
		Importer: importer,
		Locker:   locker,
		Calendar: cal,
		Logger:   logger,
		Metrics:  metrics,
		clock:    time.Now,
	}
}

// Handlers lists the task handlers for worker registration.
func (j *POSImportJob) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskPOSImportDay, Handler: j.HandleImportDay},
		{Type: TaskPOSBackfill, Handler: j.HandleBackfill},
	}
}

// HandleImportDay executes a day import.
func (j *POSImportJob) HandleImportDay(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Importer == nil || j.Calendar == nil {
		return errors.New("pos import: dependencies not configured")
	}
	var payload ImportDayPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("pos import: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	day, err := j.resolveDay(payload.Date)
	if err != nil {
		return fmt.Errorf("pos import: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskPOSImportDay)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	lease, err := j.acquire(ctx, shared.ImportLockKey(day))
	if errors.Is(err, ErrLocked) {
		j.log(TaskPOSImportDay).Info("import already running elsewhere", slog.String("date", day))
		return nil
	}
	if err != nil {
		resultErr = err
		return resultErr
	}
	defer lease.Release()

	resultErr = j.importDay(ctx, TaskPOSImportDay, day)
	return resultErr
}

// HandleBackfill imports every day of the payload range, oldest first.
func (j *POSImportJob) HandleBackfill(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Importer == nil || j.Calendar == nil {
		return errors.New("pos backfill: dependencies not configured")
	}
	var payload BackfillPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("pos backfill: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	from, to, err := j.backfillRange(payload)
	if err != nil {
		return fmt.Errorf("pos backfill: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskPOSBackfill)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	lease, err := j.acquire(ctx, shared.BackfillLockKey)
	if errors.Is(err, ErrLocked) {
		j.log(TaskPOSBackfill).Info("backfill already running elsewhere")
		return nil
	}
	if err != nil {
		resultErr = err
		return resultErr
	}
	defer lease.Release()

	start := j.now()
	imported := 0
	for d := from; !d.After(to); d = j.Calendar.AddDays(d, 1) {
		if imported > 0 {
			if err := lease.Refresh(ctx); err != nil {
				resultErr = fmt.Errorf("pos backfill: refresh lock before %s: %w", j.Calendar.Format(d), err)
				return resultErr
			}
		}
		if err := j.importDay(ctx, TaskPOSBackfill, j.Calendar.Format(d)); err != nil {
			resultErr = err
			return resultErr
		}
		imported++
	}
	j.log(TaskPOSBackfill).Info("backfill finished",
		slog.String("from", payload.From),
		slog.String("to", payload.To),
		slog.Int("days", imported),
		slog.Duration("duration", j.now().Sub(start)),
	)
	return resultErr
}

func (j *POSImportJob) importDay(ctx context.Context, job, day string) error {
	row, err := j.Importer.ImportPOS(ctx, day)
	if err != nil {
		j.log(job).Error("import pos revenue", slog.String("date", day), slog.Any("error", err))
		if errors.Is(err, shared.ErrConfig) || errors.Is(err, shared.ErrValidation) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	j.metrics().AddImportedDays(job, 1)
	j.log(job).Debug("pos revenue stored", slog.String("date", day), slog.Float64("total", row.TotalRevenue))
	return nil
}

func (j *POSImportJob) resolveDay(raw string) (string, error) {
	if raw == "" {
		yesterday := j.Calendar.AddDays(j.Calendar.Day(j.now()), -1)
		return j.Calendar.Format(yesterday), nil
	}
	d, err := j.Calendar.Parse(raw)
	if err != nil {
		return "", err
	}
	return j.Calendar.Format(d), nil
}

func (j *POSImportJob) backfillRange(p BackfillPayload) (time.Time, time.Time, error) {
	from, err := j.Calendar.Parse(p.From)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := j.Calendar.Parse(p.To)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("range end before start")
	}
	if j.Calendar.Days(from, to) > maxBackfill {
		return time.Time{}, time.Time{}, fmt.Errorf("range longer than %d days", maxBackfill)
	}
	return from, to, nil
}

func (j *POSImportJob) acquire(ctx context.Context, key string) (Lease, error) {
	if j.Locker == nil {
		return noopLease{}, nil
	}
	return j.Locker.Acquire(ctx, key, lockTTL)
}

func (j *POSImportJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *POSImportJob) log(job string) *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}

func (j *POSImportJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *POSImportJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}
