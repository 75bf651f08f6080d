package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskPipelineSnapshot refreshes the cached pipeline report of one owner.
const TaskPipelineSnapshot = "analytics.pipeline_snapshot"

// TaskPipelineSnapshotAll fans out a refresh to every owner with leads.
const TaskPipelineSnapshotAll = "analytics.pipeline_snapshot_all"

type PipelineSnapshotPayload struct {
	OwnerID string `json:"ownerId"`
}

func NewPipelineSnapshotTask(payload PipelineSnapshotPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPipelineSnapshot, data), nil
}

func ParsePipelineSnapshotPayload(task *asynq.Task) (PipelineSnapshotPayload, error) {
	var payload PipelineSnapshotPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PipelineSnapshotPayload{}, err
	}
	return payload, nil
}

func NewPipelineSnapshotAllTask() *asynq.Task {
	return asynq.NewTask(TaskPipelineSnapshotAll, nil)
}
