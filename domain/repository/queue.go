package repository

import (
	"context"

	"streamclips/domain/model"
)

// JobHandler processes one job. A returned error schedules a retry until the
// job's attempt budget is exhausted.
type JobHandler func(ctx context.Context, job *model.Job) error

// JobCallback observes a job's terminal outcome.
type JobCallback func(job *model.Job, err error)

// IQueue is the durable job queue the pipeline and dispatcher run on.
// Handlers must be registered before Run; completed/failed callbacks are
// best-effort observers.
type IQueue interface {
	Enqueue(ctx context.Context, stage string, payload interface{}, opts model.JobOptions) (string, error)
	RegisterWorker(stage string, concurrency int, handler JobHandler)
	OnCompleted(stage string, cb JobCallback)
	OnFailed(stage string, cb JobCallback)
	Run(ctx context.Context) error
}
