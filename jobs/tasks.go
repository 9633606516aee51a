package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStatsWarmup pre-computes the default report window into the cache.
	TaskStatsWarmup = "stats:warmup"
	// TaskSnapshotPrune trims old snapshot rows.
	TaskSnapshotPrune = "snapshot:prune"
)

// StatsWarmupPayload selects how far back the warmed report window reaches.
type StatsWarmupPayload struct {
	WindowMonths int `json:"window_months"`
}

// NewStatsWarmupTask constructs an Asynq task.
func NewStatsWarmupTask(payload StatsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatsWarmup, data), nil
}

// SnapshotPrunePayload caps how many snapshot rows survive a prune.
type SnapshotPrunePayload struct {
	Keep int `json:"keep"`
}

// NewSnapshotPruneTask constructs an Asynq task.
func NewSnapshotPruneTask(payload SnapshotPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotPrune, data), nil
}
