package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPOSImportDay stores one day's POS revenue in daily inputs.
	TaskPOSImportDay = "pos:import_day"
	// TaskPOSBackfill runs the day import for every day of a range.
	TaskPOSBackfill = "pos:backfill"
)

// ImportDayPayload selects the day to import. An empty date means yesterday
// in the business timezone.
type ImportDayPayload struct {
	Date string `json:"date,omitempty"`
}

// BackfillPayload is an inclusive date range.
type BackfillPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NewImportDayTask constructs a day import task.
func NewImportDayTask(date string) (*asynq.Task, error) {
	data, err := json.Marshal(ImportDayPayload{Date: date})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPOSImportDay, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewBackfillTask constructs a backfill task.
func NewBackfillTask(from, to string) (*asynq.Task, error) {
	data, err := json.Marshal(BackfillPayload{From: from, To: to})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPOSBackfill, data, asynq.Queue(QueueDefault), asynq.MaxRetry(2)), nil
}
