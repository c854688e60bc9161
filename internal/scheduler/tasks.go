package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskFillMissing = "campaign.fill_missing"

// FillMissingPayload is currently empty: the scan always covers the whole
// sheet, so repeat enqueues collapse into equivalent work.
type FillMissingPayload struct{}

func NewFillMissingTask() (*asynq.Task, error) {
	data, err := json.Marshal(FillMissingPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFillMissing, data), nil
}
