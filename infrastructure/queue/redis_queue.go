package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"streamclips/domain/model"
	"streamclips/domain/repository"
	"streamclips/infrastructure/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Options tune stall detection for all stages of a queue.
type Options struct {
	Namespace       string
	StalledInterval time.Duration
	MaxStalledCount int
}

type workerSpec struct {
	stage       string
	concurrency int
	handler     repository.JobHandler
}

// RedisQueue is a durable job queue over Redis. Each stage has a waiting list,
// a delayed zset and an active list; every job keeps its state in a hash and
// holds a heartbeat lock while a worker runs it. A job found on the active
// list without a live lock is considered stalled and requeued, counting
// against its attempt budget.
type RedisQueue struct {
	rdb  *redis.Client
	opts Options

	mu        sync.RWMutex
	workers   []workerSpec
	completed map[string][]repository.JobCallback
	failed    map[string][]repository.JobCallback
}

func NewRedisQueue(rdb *redis.Client, opts Options) *RedisQueue {
	if opts.Namespace == "" {
		opts.Namespace = "clipq"
	}
	if opts.StalledInterval <= 0 {
		opts.StalledInterval = 30 * time.Second
	}
	if opts.MaxStalledCount <= 0 {
		opts.MaxStalledCount = 3
	}
	return &RedisQueue{
		rdb:       rdb,
		opts:      opts,
		completed: make(map[string][]repository.JobCallback),
		failed:    make(map[string][]repository.JobCallback),
	}
}

func (q *RedisQueue) waitKey(stage string) string { return q.opts.Namespace + ":" + stage + ":wait" }

func (q *RedisQueue) delayedKey(stage string) string {
	return q.opts.Namespace + ":" + stage + ":delayed"
}

func (q *RedisQueue) activeKey(stage string) string {
	return q.opts.Namespace + ":" + stage + ":active"
}

func (q *RedisQueue) jobKey(id string) string { return q.opts.Namespace + ":job:" + id }

func (q *RedisQueue) lockKey(id string) string { return q.opts.Namespace + ":lock:" + id }

func (q *RedisQueue) Enqueue(ctx context.Context, stage string, payload interface{}, opts model.JobOptions) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 2 * time.Second
	}
	id := uuid.NewString()
	fields := map[string]interface{}{
		"id":           id,
		"stage":        stage,
		"payload":      string(body),
		"attempts":     0,
		"max_attempts": opts.Attempts,
		"backoff_ms":   opts.BackoffBase.Milliseconds(),
		"stalled":      0,
		"created_at":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	pipe := q.rdb.TxPipeline()
	pipe.HSet(ctx, q.jobKey(id), fields)
	pipe.LPush(ctx, q.waitKey(stage), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("enqueue %s: %w", stage, err)
	}
	return id, nil
}

func (q *RedisQueue) RegisterWorker(stage string, concurrency int, handler repository.JobHandler) {
	if concurrency <= 0 {
		concurrency = 1
	}
	q.mu.Lock()
	q.workers = append(q.workers, workerSpec{stage: stage, concurrency: concurrency, handler: handler})
	q.mu.Unlock()
}

func (q *RedisQueue) OnCompleted(stage string, cb repository.JobCallback) {
	q.mu.Lock()
	q.completed[stage] = append(q.completed[stage], cb)
	q.mu.Unlock()
}

func (q *RedisQueue) OnFailed(stage string, cb repository.JobCallback) {
	q.mu.Lock()
	q.failed[stage] = append(q.failed[stage], cb)
	q.mu.Unlock()
}

// Run starts all registered workers plus the per-stage promoter and stall
// reaper loops, and blocks until ctx is cancelled.
func (q *RedisQueue) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	q.mu.RLock()
	specs := append([]workerSpec(nil), q.workers...)
	q.mu.RUnlock()
	for _, spec := range specs {
		spec := spec
		for i := 0; i < spec.concurrency; i++ {
			g.Go(func() error { return q.workerLoop(ctx, spec) })
		}
		g.Go(func() error { return q.promoterLoop(ctx, spec.stage) })
		g.Go(func() error { return q.reaperLoop(ctx, spec.stage) })
	}
	return g.Wait()
}

func (q *RedisQueue) workerLoop(ctx context.Context, spec workerSpec) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		id, err := q.rdb.BLMove(ctx, q.waitKey(spec.stage), q.activeKey(spec.stage), "RIGHT", "LEFT", 5*time.Second).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.GetLogger().WithField("stage", spec.stage).WithField("error", err).Warn("Queue poll failed")
			time.Sleep(time.Second)
			continue
		}
		q.process(ctx, spec, id)
	}
}

func (q *RedisQueue) process(ctx context.Context, spec workerSpec, id string) {
	lg := logger.GetLogger().WithField("stage", spec.stage).WithField("job_id", id)

	job, err := q.loadJob(ctx, id)
	if err != nil || job == nil {
		// Job hash gone (already finished or expired); drop the active entry.
		q.rdb.LRem(ctx, q.activeKey(spec.stage), 1, id)
		if err != nil {
			lg.WithField("error", err).Warn("Failed to load job")
		}
		return
	}

	attempt, err := q.rdb.HIncrBy(ctx, q.jobKey(id), "attempts", 1).Result()
	if err != nil {
		lg.WithField("error", err).Warn("Failed to bump attempt counter")
		attempt = int64(job.Attempts) + 1
	}
	job.Attempts = int(attempt)

	// Heartbeat lock so the reaper can tell a live worker from a dead one.
	lockTTL := q.opts.StalledInterval * 2
	q.rdb.Set(ctx, q.lockKey(id), "1", lockTTL)
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(q.opts.StalledInterval / 2)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				q.rdb.Expire(hbCtx, q.lockKey(id), lockTTL)
			}
		}
	}()

	handlerErr := q.runHandler(ctx, spec.handler, job)
	stopHeartbeat()

	pipe := q.rdb.TxPipeline()
	pipe.LRem(ctx, q.activeKey(spec.stage), 1, id)
	pipe.Del(ctx, q.lockKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		lg.WithField("error", err).Warn("Failed to release job")
	}

	if handlerErr == nil {
		q.rdb.Del(ctx, q.jobKey(id))
		q.notify(q.completedCallbacks(spec.stage), job, nil)
		lg.WithField("attempt", job.Attempts).Info("Job completed")
		return
	}
	q.retryOrFail(ctx, spec.stage, job, handlerErr)
}

// runHandler keeps stage panics inside the job boundary.
func (q *RedisQueue) runHandler(ctx context.Context, handler repository.JobHandler, job *model.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panic: %v", r)
		}
	}()
	return handler(ctx, job)
}

func (q *RedisQueue) retryOrFail(ctx context.Context, stage string, job *model.Job, cause error) {
	lg := logger.GetLogger().WithField("stage", stage).WithField("job_id", job.ID).WithField("error", cause)
	q.rdb.HSet(ctx, q.jobKey(job.ID), "last_error", cause.Error())

	if job.Attempts >= job.MaxAttempts {
		// Terminal failure: keep the job hash around for operators, briefly.
		q.rdb.Expire(ctx, q.jobKey(job.ID), 24*time.Hour)
		q.notify(q.failedCallbacks(stage), job, cause)
		lg.WithField("attempts", job.Attempts).Error("Job failed permanently")
		return
	}

	delay := backoffDelay(job.BackoffBase, job.Attempts)
	readyAt := float64(time.Now().Add(delay).UnixMilli())
	if err := q.rdb.ZAdd(ctx, q.delayedKey(stage), redis.Z{Score: readyAt, Member: job.ID}).Err(); err != nil {
		lg.WithField("zadd_error", err).Error("Failed to schedule retry")
		return
	}
	lg.WithField("attempt", job.Attempts).WithField("retry_in", delay.String()).Warn("Job failed, retry scheduled")
}

func (q *RedisQueue) promoterLoop(ctx context.Context, stage string) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := strconv.FormatInt(time.Now().UnixMilli(), 10)
			ids, err := q.rdb.ZRangeByScore(ctx, q.delayedKey(stage), &redis.ZRangeBy{Min: "-inf", Max: now, Count: 100}).Result()
			if err != nil {
				continue
			}
			for _, id := range ids {
				removed, err := q.rdb.ZRem(ctx, q.delayedKey(stage), id).Result()
				if err != nil || removed == 0 {
					continue
				}
				q.rdb.LPush(ctx, q.waitKey(stage), id)
			}
		}
	}
}

// reaperLoop requeues jobs whose worker died mid-run. A job must be seen
// without a lock on two consecutive scans before it is reaped, so a worker
// that just moved the id to the active list still has a full stall interval
// to write its lock. Requeues count against the attempt budget since the
// worker bumps the counter on pickup; a job stalled too many times is failed
// outright.
func (q *RedisQueue) reaperLoop(ctx context.Context, stage string) error {
	ticker := time.NewTicker(q.opts.StalledInterval)
	defer ticker.Stop()
	suspect := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ids, err := q.rdb.LRange(ctx, q.activeKey(stage), 0, -1).Result()
			if err != nil {
				continue
			}
			current := make(map[string]bool, len(ids))
			for _, id := range ids {
				current[id] = true
				locked, err := q.rdb.Exists(ctx, q.lockKey(id)).Result()
				if err != nil || locked > 0 {
					delete(suspect, id)
					continue
				}
				if !suspect[id] {
					suspect[id] = true
					continue
				}
				delete(suspect, id)
				removed, err := q.rdb.LRem(ctx, q.activeKey(stage), 1, id).Result()
				if err != nil || removed == 0 {
					continue
				}
				job, err := q.loadJob(ctx, id)
				if err != nil || job == nil {
					continue
				}
				stalls, _ := q.rdb.HIncrBy(ctx, q.jobKey(id), "stalled", 1).Result()
				cause := fmt.Errorf("job stalled (worker lost), stall %d", stalls)
				if int(stalls) > q.opts.MaxStalledCount || job.Attempts >= job.MaxAttempts {
					q.rdb.HSet(ctx, q.jobKey(id), "last_error", cause.Error())
					q.rdb.Expire(ctx, q.jobKey(id), 24*time.Hour)
					q.notify(q.failedCallbacks(stage), job, cause)
					logger.GetLogger().WithField("stage", stage).WithField("job_id", id).Error("Stalled job failed permanently")
					continue
				}
				q.rdb.LPush(ctx, q.waitKey(stage), id)
				logger.GetLogger().WithField("stage", stage).WithField("job_id", id).Warn("Stalled job requeued")
			}
			for id := range suspect {
				if !current[id] {
					delete(suspect, id)
				}
			}
		}
	}
}

func (q *RedisQueue) loadJob(ctx context.Context, id string) (*model.Job, error) {
	fields, err := q.rdb.HGetAll(ctx, q.jobKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	attempts, _ := strconv.Atoi(fields["attempts"])
	maxAttempts, _ := strconv.Atoi(fields["max_attempts"])
	backoffMs, _ := strconv.ParseInt(fields["backoff_ms"], 10, 64)
	createdAt, _ := time.Parse(time.RFC3339Nano, fields["created_at"])
	return &model.Job{
		ID:          fields["id"],
		Stage:       fields["stage"],
		Payload:     []byte(fields["payload"]),
		Attempts:    attempts,
		MaxAttempts: maxAttempts,
		BackoffBase: time.Duration(backoffMs) * time.Millisecond,
		LastError:   fields["last_error"],
		CreatedAt:   createdAt,
	}, nil
}

func (q *RedisQueue) completedCallbacks(stage string) []repository.JobCallback {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.completed[stage]
}

func (q *RedisQueue) failedCallbacks(stage string) []repository.JobCallback {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.failed[stage]
}

func (q *RedisQueue) notify(cbs []repository.JobCallback, job *model.Job, err error) {
	for _, cb := range cbs {
		cb(job, err)
	}
}

// backoffDelay returns the exponential delay before retry number attempt+1:
// base, 2*base, 4*base, ... capped at five minutes.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= 5*time.Minute {
			return 5 * time.Minute
		}
	}
	return d
}

var _ repository.IQueue = (*RedisQueue)(nil)
