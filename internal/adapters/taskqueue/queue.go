// Package taskqueue implements ports.TaskDispatcher and ports.TaskQueue as a
// reliable queue over Redis: LPUSH to enqueue, BRPOPLPUSH to claim into a
// per-worker in-flight list, LREM to acknowledge, and a reaper that
// requeues anything left in an in-flight list past its visibility timeout
// (§ "Queue protocol").
package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/shopsignal/platform/internal/platform/errors"
	"github.com/shopsignal/platform/internal/ports"
)

const (
	pendingKey          = "tasks:pending"
	processingKeyPrefix = "tasks:processing:"
	processingMetaHash  = "tasks:processing:meta"
)

// envelope is the JSON wire shape pushed onto pendingKey: {name, args}.
type envelope struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Config configures the Redis-backed queue.
type Config struct {
	WorkerID          string
	VisibilityTimeout time.Duration
}

// Queue implements both ports.TaskDispatcher and ports.TaskQueue.
type Queue struct {
	rdb               *redis.Client
	workerID          string
	processingKey     string
	visibilityTimeout time.Duration
}

// New constructs a Queue bound to a Redis client already connected to
// TASK_BROKER_URL.
func New(rdb *redis.Client, cfg Config) *Queue {
	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = uuid.NewString()
	}
	visibilityTimeout := cfg.VisibilityTimeout
	if visibilityTimeout <= 0 {
		visibilityTimeout = 5 * time.Minute
	}

	return &Queue{
		rdb:               rdb,
		workerID:          workerID,
		processingKey:     processingKeyPrefix + workerID,
		visibilityTimeout: visibilityTimeout,
	}
}

// Enqueue implements ports.TaskDispatcher.
func (q *Queue) Enqueue(ctx context.Context, task ports.Task) error {
	payload, err := json.Marshal(envelope{Name: string(task.Kind), Args: task.Payload})
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	if err := q.rdb.LPush(ctx, pendingKey, payload).Err(); err != nil {
		return errors.UpstreamTransient("task_enqueue", err)
	}
	return nil
}

// Claim implements ports.TaskQueue. It blocks (subject to ctx) until a task
// is available, moving it atomically into this worker's in-flight list.
func (q *Queue) Claim(ctx context.Context) (*ports.ClaimedTask, error) {
	payload, err := q.rdb.BRPopLPush(ctx, pendingKey, q.processingKey, 0).Result()
	if err != nil {
		if err == redis.Nil || ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.UpstreamTransient("task_claim", err)
	}

	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		// A malformed entry can never be retried into something valid;
		// drop it from the in-flight list rather than wedging the worker.
		q.rdb.LRem(ctx, q.processingKey, 1, payload)
		return nil, fmt.Errorf("decode task: %w", err)
	}

	if err := q.rdb.HSet(ctx, processingMetaHash, payload, time.Now().Unix()).Err(); err != nil {
		return nil, errors.UpstreamTransient("task_claim_meta", err)
	}

	return &ports.ClaimedTask{
		Task:  ports.Task{Kind: ports.TaskKind(env.Name), Payload: env.Args},
		Token: payload,
	}, nil
}

// Ack implements ports.TaskQueue, removing a successfully processed task
// from this worker's in-flight list.
func (q *Queue) Ack(ctx context.Context, token string) error {
	if err := q.rdb.LRem(ctx, q.processingKey, 1, token).Err(); err != nil {
		return errors.UpstreamTransient("task_ack", err)
	}
	q.rdb.HDel(ctx, processingMetaHash, token)
	return nil
}

// Requeue implements ports.TaskQueue: a task that failed but is still
// retryable goes back onto the pending list so any worker can pick it up
// again (tasks are idempotent by design — § "Queue protocol").
func (q *Queue) Requeue(ctx context.Context, token string) error {
	removed, err := q.rdb.LRem(ctx, q.processingKey, 1, token).Result()
	if err != nil {
		return errors.UpstreamTransient("task_requeue", err)
	}
	if removed == 0 {
		return nil
	}
	if err := q.rdb.LPush(ctx, pendingKey, token).Err(); err != nil {
		return errors.UpstreamTransient("task_requeue", err)
	}
	q.rdb.HDel(ctx, processingMetaHash, token)
	return nil
}

// ReapExpired scans every worker's in-flight list for entries claimed
// longer than olderThan ago and requeues them, recovering work orphaned by
// a crashed worker.
func (q *Queue) ReapExpired(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		olderThan = q.visibilityTimeout
	}

	var processingKeys []string
	iter := q.rdb.Scan(ctx, 0, processingKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if key := iter.Val(); key != processingMetaHash {
			processingKeys = append(processingKeys, key)
		}
	}
	if err := iter.Err(); err != nil {
		return 0, errors.UpstreamTransient("task_reap_scan", err)
	}

	recovered := 0
	cutoff := time.Now().Add(-olderThan).Unix()

	for _, key := range processingKeys {
		entries, err := q.rdb.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			return recovered, errors.UpstreamTransient("task_reap_list", err)
		}

		for _, entry := range entries {
			claimedAtStr, err := q.rdb.HGet(ctx, processingMetaHash, entry).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				return recovered, errors.UpstreamTransient("task_reap_meta", err)
			}
			var claimedAt int64
			fmt.Sscanf(claimedAtStr, "%d", &claimedAt)
			if claimedAt > cutoff {
				continue
			}

			if removed, err := q.rdb.LRem(ctx, key, 1, entry).Result(); err == nil && removed > 0 {
				if err := q.rdb.LPush(ctx, pendingKey, entry).Err(); err == nil {
					q.rdb.HDel(ctx, processingMetaHash, entry)
					recovered++
				}
			}
		}
	}

	return recovered, nil
}
