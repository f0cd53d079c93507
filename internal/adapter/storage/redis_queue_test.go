package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dhnam/shoplite/internal/port"
)

func setupTestQueue(t *testing.T) (*RedisTaskQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisTaskQueue(client), mr
}

func TestRedisQueue_EnqueueDequeue(t *testing.T) {
	queue, _ := setupTestQueue(t)
	ctx := context.Background()

	want := port.Task{OrderID: "o1", Attempt: 2}
	if err := queue.Enqueue(ctx, want); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	got, err := queue.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestRedisQueue_FIFO(t *testing.T) {
	queue, _ := setupTestQueue(t)
	ctx := context.Background()

	for _, id := range []string{"o1", "o2", "o3"} {
		if err := queue.Enqueue(ctx, port.Task{OrderID: id}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	for _, want := range []string{"o1", "o2", "o3"} {
		got, err := queue.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
		if got.OrderID != want {
			t.Errorf("got %s, want %s", got.OrderID, want)
		}
	}
}

func TestRedisQueue_PendingUntilAck(t *testing.T) {
	queue, mr := setupTestQueue(t)
	ctx := context.Background()

	task := port.Task{OrderID: "o1"}
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if _, err := queue.Dequeue(ctx); err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}

	// The task sits on the processing list until acked, so a crashed
	// consumer leaves it recoverable
	if n, _ := mr.List(taskProcessingKey); len(n) != 1 {
		t.Fatalf("expected 1 task on processing list, got %d", len(n))
	}

	if err := queue.Ack(ctx, task); err != nil {
		t.Fatalf("Ack failed: %v", err)
	}
	if n, _ := mr.List(taskProcessingKey); len(n) != 0 {
		t.Fatalf("expected empty processing list after ack, got %d", len(n))
	}
}

func TestRedisQueue_RecoverStrandedTasks(t *testing.T) {
	queue, mr := setupTestQueue(t)
	ctx := context.Background()

	for _, id := range []string{"o1", "o2"} {
		if err := queue.Enqueue(ctx, port.Task{OrderID: id}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	// Consumer dequeues both and dies before acking either
	for i := 0; i < 2; i++ {
		if _, err := queue.Dequeue(ctx); err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
	}
	if items, _ := mr.List(taskProcessingKey); len(items) != 2 {
		t.Fatalf("expected 2 stranded tasks, got %d", len(items))
	}

	n, err := queue.Recover(ctx)
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 recovered tasks, got %d", n)
	}
	if items, _ := mr.List(taskProcessingKey); len(items) != 0 {
		t.Fatalf("expected empty processing list after recover, got %d", len(items))
	}

	// Recovered tasks are redelivered in their original order
	for _, want := range []string{"o1", "o2"} {
		got, err := queue.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
		if got.OrderID != want {
			t.Errorf("got %s, want %s", got.OrderID, want)
		}
	}
}

func TestRedisQueue_RecoverEmpty(t *testing.T) {
	queue, _ := setupTestQueue(t)

	n, err := queue.Recover(context.Background())
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 recovered tasks, got %d", n)
	}
}

func TestRedisQueue_DequeueHonorsContext(t *testing.T) {
	queue, _ := setupTestQueue(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := queue.Dequeue(ctx)
	if err == nil {
		t.Fatal("expected error from empty queue with cancelled context")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("Dequeue did not give up after context cancellation")
	}
}
