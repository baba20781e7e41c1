package labor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kitchenboard/kitchenboard/internal/platform/db"
)

// Repository persists labor entries and schedule shifts in PostgreSQL.
// Amounts travel as NUMERIC through the shopspring codec registered on the
// pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertEntries appends entries under batch.
func (r *Repository) InsertEntries(ctx context.Context, batch uuid.UUID, entries []Entry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		day, err := time.Parse(time.DateOnly, e.Date)
		if err != nil {
			return 0, fmt.Errorf("labor: entry date %q: %w", e.Date, err)
		}
		rows = append(rows, []any{e.Employee, day, e.Amount, pgtype.UUID{Bytes: batch, Valid: true}})
	}
	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"labor_entries"},
		[]string{"employee", "date", "amount", "import_batch"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("labor: insert entries: %w", err)
	}
	return n, nil
}

// EntriesForDates returns entries on any of days, oldest insert first.
func (r *Repository) EntriesForDates(ctx context.Context, days []string) ([]Entry, error) {
	if len(days) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
SELECT id, employee, to_char(date, 'YYYY-MM-DD'), amount, import_batch::text
FROM labor_entries
WHERE to_char(date, 'YYYY-MM-DD') = ANY($1::text[])
ORDER BY id ASC`, days)
	if err != nil {
		return nil, fmt.Errorf("labor: entries for dates: %w", err)
	}
	return collectEntries(rows)
}

// EntriesOn returns every entry for one date.
func (r *Repository) EntriesOn(ctx context.Context, date string) ([]Entry, error) {
	return r.EntriesForDates(ctx, []string{date})
}

// DeleteBatch removes the rows of one import run.
func (r *Repository) DeleteBatch(ctx context.Context, batch uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM labor_entries WHERE import_batch = $1::uuid`, batch.String())
	if err != nil {
		return 0, fmt.Errorf("labor: delete batch %s: %w", batch, err)
	}
	return tag.RowsAffected(), nil
}

// SumBetween totals entry amounts for from <= date <= to.
func (r *Repository) SumBetween(ctx context.Context, from, to string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(amount), 0)
FROM labor_entries
WHERE date BETWEEN $1::date AND $2::date`, from, to).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("labor: sum %s..%s: %w", from, to, err)
	}
	return total, nil
}

// ReplaceShifts clears the schedule and inserts shifts in one transaction.
func (r *Repository) ReplaceShifts(ctx context.Context, shifts []ScheduleShift) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM schedule_shifts`); err != nil {
			return fmt.Errorf("labor: clear schedule: %w", err)
		}
		if len(shifts) == 0 {
			return nil
		}
		rows := make([][]any, 0, len(shifts))
		for _, s := range shifts {
			day, err := time.Parse(time.DateOnly, s.Date)
			if err != nil {
				return fmt.Errorf("labor: shift date %q: %w", s.Date, err)
			}
			rows = append(rows, []any{s.Employee, day, s.TimeFrom, s.TimeTo})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"schedule_shifts"},
			[]string{"employee", "date", "time_from", "time_to"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("labor: insert shifts: %w", err)
		}
		return nil
	})
}

// ShiftsBetween lists resolved shifts for from <= date <= to.
func (r *Repository) ShiftsBetween(ctx context.Context, from, to string) ([]ScheduleShift, error) {
	rows, err := r.pool.Query(ctx, `
SELECT employee, to_char(date, 'YYYY-MM-DD'), time_from, time_to
FROM schedule_shifts
WHERE date BETWEEN $1::date AND $2::date
ORDER BY date ASC, time_from ASC, employee ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("labor: list shifts: %w", err)
	}
	defer rows.Close()
	var out []ScheduleShift
	for rows.Next() {
		var s ScheduleShift
		if err := rows.Scan(&s.Employee, &s.Date, &s.TimeFrom, &s.TimeTo); err != nil {
			return nil, fmt.Errorf("labor: scan shift: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			e     Entry
			batch string
		)
		if err := rows.Scan(&e.ID, &e.Employee, &e.Date, &e.Amount, &batch); err != nil {
			return nil, fmt.Errorf("labor: scan entry: %w", err)
		}
		id, err := uuid.Parse(batch)
		if err != nil {
			return nil, fmt.Errorf("labor: entry %d batch: %w", e.ID, err)
		}
		e.ImportBatch = id
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("labor: rows: %w", err)
	}
	return out, nil
}
