package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSessionSweep removes expired session audit rows.
	TaskTypeSessionSweep = "auth:sweep_sessions"
	// TaskTypeSummaryWarmup precomputes earnings summaries for active users.
	TaskTypeSummaryWarmup = "reports:warmup"
)

// SessionSweepPayload carries parameters for the session sweep job.
type SessionSweepPayload struct {
	Batch int `json:"batch"`
}

// NewSessionSweepTask constructs a session sweep task.
func NewSessionSweepTask(payload SessionSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSessionSweep, data), nil
}

// SummaryWarmupPayload carries parameters for the summary warmup job.
type SummaryWarmupPayload struct {
	ActiveWithin string `json:"active_within"`
}

// NewSummaryWarmupTask constructs a summary warmup task.
func NewSummaryWarmupTask(payload SummaryWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSummaryWarmup, data), nil
}
