package inputs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectColumns = `to_char(date, 'YYYY-MM-DD'), total_revenue, wolt_revenue, labor_cost, bc_grocery_cost, updated_at`

// Repository persists DailyInput rows in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert replaces every field of the row for in.Date in one statement.
func (r *Repository) Upsert(ctx context.Context, in DailyInput) (DailyInput, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO daily_inputs (date, total_revenue, wolt_revenue, labor_cost, bc_grocery_cost, updated_at)
VALUES ($1::date, $2, $3, $4, $5, NOW())
ON CONFLICT (date) DO UPDATE SET
    total_revenue = EXCLUDED.total_revenue,
    wolt_revenue = EXCLUDED.wolt_revenue,
    labor_cost = EXCLUDED.labor_cost,
    bc_grocery_cost = EXCLUDED.bc_grocery_cost,
    updated_at = NOW()
RETURNING `+selectColumns,
		in.Date, in.TotalRevenue, in.WoltRevenue, in.LaborCost, in.BCGroceryCost)
	out, err := scanInput(row)
	if err != nil {
		return DailyInput{}, fmt.Errorf("inputs: upsert %s: %w", in.Date, err)
	}
	return out, nil
}

// SetTotalRevenue overwrites only total_revenue, creating the row if needed.
func (r *Repository) SetTotalRevenue(ctx context.Context, date string, total float64) (DailyInput, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO daily_inputs (date, total_revenue, updated_at)
VALUES ($1::date, $2, NOW())
ON CONFLICT (date) DO UPDATE SET
    total_revenue = EXCLUDED.total_revenue,
    updated_at = NOW()
RETURNING `+selectColumns, date, total)
	out, err := scanInput(row)
	if err != nil {
		return DailyInput{}, fmt.Errorf("inputs: set total revenue %s: %w", date, err)
	}
	return out, nil
}

// List returns every row in ascending date order.
func (r *Repository) List(ctx context.Context) ([]DailyInput, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM daily_inputs ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("inputs: list: %w", err)
	}
	return collect(rows)
}

// ListRange returns rows with from <= date <= to in ascending order.
func (r *Repository) ListRange(ctx context.Context, from, to string) ([]DailyInput, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM daily_inputs
WHERE date BETWEEN $1::date AND $2::date
ORDER BY date ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("inputs: list range: %w", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]DailyInput, error) {
	defer rows.Close()
	var out []DailyInput
	for rows.Next() {
		in, err := scanInput(rows)
		if err != nil {
			return nil, fmt.Errorf("inputs: scan: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inputs: rows: %w", err)
	}
	return out, nil
}

func scanInput(row pgx.Row) (DailyInput, error) {
	var in DailyInput
	err := row.Scan(&in.Date, &in.TotalRevenue, &in.WoltRevenue, &in.LaborCost, &in.BCGroceryCost, &in.UpdatedAt)
	return in, err
}
