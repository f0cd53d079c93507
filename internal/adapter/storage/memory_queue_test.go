package storage

import (
	"context"
	"testing"
	"time"

	"github.com/dhnam/shoplite/internal/port"
)

func TestMemoryQueue_RoundTrip(t *testing.T) {
	queue := NewMemoryTaskQueue(10)
	ctx := context.Background()

	want := port.Task{OrderID: "o1", Attempt: 1}
	if err := queue.Enqueue(ctx, want); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if queue.Len() != 1 {
		t.Fatalf("expected 1 queued task, got %d", queue.Len())
	}

	got, err := queue.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if err := queue.Ack(ctx, got); err != nil {
		t.Fatalf("Ack failed: %v", err)
	}
}

func TestMemoryQueue_DequeueBlocksUntilCancel(t *testing.T) {
	queue := NewMemoryTaskQueue(1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := queue.Dequeue(ctx)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
}
