package labor

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// matchTolerance is the largest amount difference still treated as the same
// payment.
var matchTolerance = decimal.New(1, -2)

// Store is the persistence contract for imports and cost reports.
type Store interface {
	InsertEntries(ctx context.Context, batch uuid.UUID, entries []Entry) (int64, error)
	EntriesForDates(ctx context.Context, days []string) ([]Entry, error)
	EntriesOn(ctx context.Context, date string) ([]Entry, error)
	DeleteBatch(ctx context.Context, batch uuid.UUID) (int64, error)
	SumBetween(ctx context.Context, from, to string) (decimal.Decimal, error)
	ReplaceShifts(ctx context.Context, shifts []ScheduleShift) error
	ShiftsBetween(ctx context.Context, from, to string) ([]ScheduleShift, error)
}

// Importer turns vendor HTML exports into stored rows.
type Importer struct {
	store  Store
	logger *slog.Logger
	newID  func() uuid.UUID
}

// NewImporter constructs an Importer.
func NewImporter(store Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, logger: logger, newID: uuid.New}
}

// ImportPayslips appends every parsed pay-slip line as a LaborEntry. The
// same document imported twice is counted twice; DeleteBatch undoes a run.
func (i *Importer) ImportPayslips(ctx context.Context, html io.Reader) (PayslipResult, error) {
	lines, err := ParsePayslips(html)
	if err != nil {
		return PayslipResult{}, err
	}
	if len(lines) == 0 {
		return PayslipResult{}, nil
	}
	batch := i.newID()
	entries := make([]Entry, 0, len(lines))
	for _, l := range lines {
		entries = append(entries, Entry{Employee: l.Employee, Date: l.Date, Amount: l.Amount, ImportBatch: batch})
	}
	n, err := i.store.InsertEntries(ctx, batch, entries)
	if err != nil {
		return PayslipResult{}, err
	}
	i.logger.Info("pay slips imported", slog.Int64("entries", n), slog.String("batch", batch.String()))
	return PayslipResult{EntriesImported: int(n), BatchID: batch}, nil
}

// ImportSchedule parses a timesheet, resolves each shift to an employee and
// replaces the whole schedule with the resolved shifts.
func (i *Importer) ImportSchedule(ctx context.Context, html io.Reader) (ScheduleResult, error) {
	parsed, err := ParseTimesheet(html)
	if err != nil {
		return ScheduleResult{}, err
	}

	seen := make(map[string]struct{}, len(parsed))
	var days []string
	for _, s := range parsed {
		if _, ok := seen[s.Date]; ok {
			continue
		}
		seen[s.Date] = struct{}{}
		days = append(days, s.Date)
	}
	entries, err := i.store.EntriesForDates(ctx, days)
	if err != nil {
		return ScheduleResult{}, err
	}

	resolved := Reconcile(parsed, entries)
	if err := i.store.ReplaceShifts(ctx, resolved); err != nil {
		return ScheduleResult{}, err
	}
	i.logger.Info("schedule imported",
		slog.Int("parsed", len(parsed)),
		slog.Int("imported", len(resolved)),
	)
	return ScheduleResult{ShiftsImported: len(resolved), ShiftsParsed: len(parsed)}, nil
}

// DeleteBatch removes the entries of one pay-slip import.
func (i *Importer) DeleteBatch(ctx context.Context, batch uuid.UUID) (int64, error) {
	n, err := i.store.DeleteBatch(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("labor: delete batch: %w", err)
	}
	return n, nil
}

// Reconcile assigns each shift the employee of the first entry on the same
// date whose amount differs by less than 0.01. Two employees paid the same
// amount on one day cannot be told apart; the earlier entry wins. Shifts
// without a match are dropped.
func Reconcile(shifts []ParsedShift, entries []Entry) []ScheduleShift {
	byDate := make(map[string][]Entry)
	for _, e := range entries {
		byDate[e.Date] = append(byDate[e.Date], e)
	}
	out := make([]ScheduleShift, 0, len(shifts))
	for _, s := range shifts {
		for _, e := range byDate[s.Date] {
			if e.Amount.Sub(s.Amount).Abs().LessThan(matchTolerance) {
				out = append(out, ScheduleShift{Employee: e.Employee, Date: s.Date, TimeFrom: s.TimeFrom, TimeTo: s.TimeTo})
				break
			}
		}
	}
	return out
}
