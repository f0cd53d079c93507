package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/dhnam/shoplite/internal/port"
)

const taskTopic = "order-tasks"

// KafkaTaskQueue dispatches tasks through a Kafka topic with a consumer
// group. Offsets are committed on read, so Ack is a no-op; at-least-once
// holds because an uncommitted message is redelivered to the group.
type KafkaTaskQueue struct {
	writer *kafka.Writer
	reader *kafka.Reader
}

func NewKafkaTaskQueue(brokers []string, groupID string) *KafkaTaskQueue {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    taskTopic,
		Balancer: &kafka.Hash{},
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    taskTopic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &KafkaTaskQueue{writer: writer, reader: reader}
}

func (q *KafkaTaskQueue) Enqueue(ctx context.Context, task port.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.OrderID),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (q *KafkaTaskQueue) Dequeue(ctx context.Context) (port.Task, error) {
	m, err := q.reader.ReadMessage(ctx)
	if err != nil {
		return port.Task{}, fmt.Errorf("kafka read: %w", err)
	}

	var task port.Task
	if err := json.Unmarshal(m.Value, &task); err != nil {
		return port.Task{}, fmt.Errorf("unmarshal task: %w", err)
	}
	return task, nil
}

func (q *KafkaTaskQueue) Ack(ctx context.Context, task port.Task) error {
	return nil
}

func (q *KafkaTaskQueue) Close() error {
	if err := q.writer.Close(); err != nil {
		return err
	}
	return q.reader.Close()
}
