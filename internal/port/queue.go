package port

import "context"

// Task is one unit of async order processing. Attempt counts prior tries so
// a redelivered task keeps its retry budget.
type Task struct {
	OrderID string `json:"order_id"`
	Attempt int    `json:"attempt"`
}

// TaskQueue dispatches orders to the async processor with at-least-once
// delivery. Consumers must tolerate redelivery of the same order.
type TaskQueue interface {
	// Enqueue is fire-and-forget from the caller's point of view.
	Enqueue(ctx context.Context, task Task) error

	// Dequeue blocks until a task is available or ctx is done.
	Dequeue(ctx context.Context) (Task, error)

	// Ack marks the task as handled. Implementations with commit-on-read
	// semantics may make this a no-op.
	Ack(ctx context.Context, task Task) error
}
