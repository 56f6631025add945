package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSettleGenerateAll is the task type for batch settlement generation.
	TaskSettleGenerateAll = "settlement:generate_all"
)

// SettleGenerateAllPayload identifies one batch settlement run.
type SettleGenerateAllPayload struct {
	BatchID   string `json:"batch_id"`
	YearMonth string `json:"year_month"`
}

// NewSettleGenerateAllTask constructs the batch settlement task for a month.
func NewSettleGenerateAllTask(yearMonth string) (*asynq.Task, error) {
	data, err := json.Marshal(SettleGenerateAllPayload{
		BatchID:   uuid.NewString(),
		YearMonth: yearMonth,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettleGenerateAll, data), nil
}
