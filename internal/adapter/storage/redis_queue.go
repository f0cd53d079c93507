package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dhnam/shoplite/internal/port"
)

const (
	taskQueueKey      = "orders:tasks"
	taskProcessingKey = "orders:tasks:processing"
)

// RedisTaskQueue is a durable list-backed queue. Dequeue moves the task onto
// a processing list; Ack removes it from there. A task that was dequeued but
// never acked stays on the processing list and can be redelivered, which
// gives at-least-once semantics.
type RedisTaskQueue struct {
	client *redis.Client
}

func NewRedisTaskQueue(client *redis.Client) *RedisTaskQueue {
	return &RedisTaskQueue{client: client}
}

func (q *RedisTaskQueue) Enqueue(ctx context.Context, task port.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.client.LPush(ctx, taskQueueKey, data).Err(); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}
	return nil
}

func (q *RedisTaskQueue) Dequeue(ctx context.Context) (port.Task, error) {
	for {
		data, err := q.client.BLMove(ctx, taskQueueKey, taskProcessingKey, "RIGHT", "LEFT", time.Second).Bytes()
		if err == redis.Nil {
			if ctx.Err() != nil {
				return port.Task{}, ctx.Err()
			}
			continue
		}
		if err != nil {
			return port.Task{}, fmt.Errorf("redis blmove: %w", err)
		}

		var task port.Task
		if err := json.Unmarshal(data, &task); err != nil {
			// Malformed payload: drop it rather than poison the queue.
			q.client.LRem(ctx, taskProcessingKey, 1, data)
			return port.Task{}, fmt.Errorf("unmarshal task: %w", err)
		}
		return task, nil
	}
}

// Recover moves tasks stranded on the processing list by a consumer that
// died between Dequeue and Ack back onto the queue, oldest first. Call it
// before starting workers; it returns the number of tasks requeued.
func (q *RedisTaskQueue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, taskProcessingKey, taskQueueKey, "RIGHT", "LEFT").Err()
		if err == redis.Nil {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("redis lmove: %w", err)
		}
		moved++
	}
}

func (q *RedisTaskQueue) Ack(ctx context.Context, task port.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.client.LRem(ctx, taskProcessingKey, 1, data).Err(); err != nil {
		return fmt.Errorf("redis lrem: %w", err)
	}
	return nil
}
