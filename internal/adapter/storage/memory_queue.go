package storage

import (
	"context"

	"github.com/dhnam/shoplite/internal/port"
)

// MemoryTaskQueue is a buffered channel queue for single-binary runs and
// tests. It is not durable: tasks are lost on process exit.
type MemoryTaskQueue struct {
	tasks chan port.Task
}

func NewMemoryTaskQueue(size int) *MemoryTaskQueue {
	return &MemoryTaskQueue{tasks: make(chan port.Task, size)}
}

func (q *MemoryTaskQueue) Enqueue(ctx context.Context, task port.Task) error {
	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryTaskQueue) Dequeue(ctx context.Context) (port.Task, error) {
	select {
	case task := <-q.tasks:
		return task, nil
	case <-ctx.Done():
		return port.Task{}, ctx.Err()
	}
}

func (q *MemoryTaskQueue) Ack(ctx context.Context, task port.Task) error {
	return nil
}

// Len reports queued tasks, for tests and shutdown draining.
func (q *MemoryTaskQueue) Len() int {
	return len(q.tasks)
}
