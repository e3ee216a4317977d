package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskReapStaleGenerations marks photo generations stuck in processing
// as failed. Only a crash mid-call leaves such rows behind; the task
// keeps polling clients from waiting on them forever.
const TaskReapStaleGenerations = "photobooth.reap_stale"

type ReapStaleGenerationsPayload struct {
	// Reason is the error message written into reaped rows.
	Reason string `json:"reason"`
}

func NewReapStaleGenerationsTask(payload ReapStaleGenerationsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReapStaleGenerations, data), nil
}

func ParseReapStaleGenerationsPayload(task *asynq.Task) (ReapStaleGenerationsPayload, error) {
	var payload ReapStaleGenerationsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ReapStaleGenerationsPayload{}, err
	}
	return payload, nil
}
