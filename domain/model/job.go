package model

import "time"

// Job statuses inside the queue.
const (
	JobStatusWaiting   = "waiting"
	JobStatusDelayed   = "delayed"
	JobStatusActive    = "active"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job is one unit of queued work for a pipeline stage.
type Job struct {
	ID          string        `json:"id"`
	Stage       string        `json:"stage"`
	Payload     []byte        `json:"payload"`
	Attempts    int           `json:"attempts"`
	MaxAttempts int           `json:"max_attempts"`
	BackoffBase time.Duration `json:"backoff_base"`
	LastError   string        `json:"last_error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// JobOptions control retry behaviour for an enqueued job.
type JobOptions struct {
	Attempts    int
	BackoffBase time.Duration
}
