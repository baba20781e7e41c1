// Package labor imports pay slips and timesheets exported by the scheduling
// vendor, reconciles shifts to employees and reports labor cost.
package labor

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is one pay-slip line. Entries are append-only; each import run
// stamps its rows with a batch id.
type Entry struct {
	ID          int64
	Employee    string
	Date        string
	Amount      decimal.Decimal
	ImportBatch uuid.UUID
}

// ParsedShift is a timesheet row before the employee is known.
type ParsedShift struct {
	Date     string
	TimeFrom string
	TimeTo   string
	Amount   decimal.Decimal
}

// ScheduleShift is a shift resolved to an employee.
type ScheduleShift struct {
	Employee string `json:"employee"`
	Date     string `json:"date"`
	TimeFrom string `json:"timeFrom"`
	TimeTo   string `json:"timeTo"`
}

// PayslipResult reports a pay-slip import.
type PayslipResult struct {
	EntriesImported int       `json:"entriesImported"`
	BatchID         uuid.UUID `json:"batchId"`
}

// ScheduleResult reports a timesheet import. ShiftsParsed minus
// ShiftsImported is the number of shifts no entry matched.
type ScheduleResult struct {
	ShiftsImported int `json:"shiftsImported"`
	ShiftsParsed   int `json:"shiftsParsed"`
}
