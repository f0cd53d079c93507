package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/dhnam/shoplite/internal/core/domain"
	"github.com/dhnam/shoplite/internal/metrics"
	"github.com/dhnam/shoplite/internal/port"
)

// ExternalStep stands in for the call the processor makes per order:
// payment capture, inventory sync, notification. It must respect ctx.
type ExternalStep func(ctx context.Context, order domain.Order) error

// SimulatedStep blocks for d, standing in for an external API call.
func SimulatedStep(d time.Duration) ExternalStep {
	return func(ctx context.Context, _ domain.Order) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type ProcessorConfig struct {
	// MaxAttempts bounds total tries per order, including the first.
	MaxAttempts int
	// RetryDelay is the fixed wait before a failed attempt is re-enqueued.
	RetryDelay time.Duration
	// StepTimeout aborts an external step that runs too long; the aborted
	// attempt counts against MaxAttempts.
	StepTimeout time.Duration
	Step        ExternalStep
}

// Processor drains the task queue and advances orders to a terminal state.
// It only ever reads and writes order status, never product stock, so
// redelivered tasks are safe by construction.
type Processor struct {
	orders  port.OrderStore
	queue   port.TaskQueue
	metrics *metrics.Metrics
	cfg     ProcessorConfig

	retries sync.WaitGroup
}

func NewProcessor(orders port.OrderStore, queue port.TaskQueue, m *metrics.Metrics, cfg ProcessorConfig) *Processor {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 30 * time.Second
	}
	if cfg.Step == nil {
		cfg.Step = SimulatedStep(5 * time.Second)
	}
	return &Processor{orders: orders, queue: queue, metrics: m, cfg: cfg}
}

// Run blocks draining the queue with the given number of workers until ctx
// is cancelled, then waits for in-flight work and pending retry timers.
func (p *Processor) Run(ctx context.Context, workers int) {
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.workerLoop(ctx, id)
		}(i)
	}
	wg.Wait()
	p.retries.Wait()
}

func (p *Processor) workerLoop(ctx context.Context, id int) {
	for {
		task, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("worker %d: dequeue failed: %v", id, err)
			continue
		}
		p.process(ctx, id, task)
	}
}

func (p *Processor) process(ctx context.Context, workerID int, task port.Task) {
	order, err := p.orders.GetByID(ctx, task.OrderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		log.Printf("worker %d: order %s not found, dropping task", workerID, task.OrderID)
		p.ack(ctx, task)
		return
	}
	if err != nil {
		log.Printf("worker %d: read order %s failed: %v", workerID, task.OrderID, err)
		p.requeue(task)
		p.ack(ctx, task)
		return
	}

	// Mark as processing before doing the work so the state is observable
	// mid-flight. Not applied means the order already reached a state this
	// task may not precede (a redelivery); drop it.
	applied, err := p.orders.Transition(ctx, task.OrderID, domain.OrderStatusProcessing)
	if err != nil {
		log.Printf("worker %d: transition order %s failed: %v", workerID, task.OrderID, err)
		p.requeue(task)
		p.ack(ctx, task)
		return
	}
	if !applied {
		log.Printf("worker %d: order %s already %s, dropping redelivered task", workerID, order.ID, order.Status)
		p.metrics.OrdersProcessed.WithLabelValues("skipped").Inc()
		p.ack(ctx, task)
		return
	}

	stepCtx, cancel := context.WithTimeout(ctx, p.cfg.StepTimeout)
	stepErr := p.cfg.Step(stepCtx, order)
	cancel()

	if stepErr == nil {
		applied, err := p.orders.Transition(ctx, task.OrderID, domain.OrderStatusCompleted)
		if err != nil {
			log.Printf("worker %d: complete order %s failed: %v", workerID, task.OrderID, err)
			p.requeue(task)
			p.ack(ctx, task)
			return
		}
		if !applied {
			log.Printf("worker %d: order %s finished elsewhere, dropping task", workerID, task.OrderID)
			p.metrics.OrdersProcessed.WithLabelValues("skipped").Inc()
			p.ack(ctx, task)
			return
		}
		p.metrics.OrdersProcessed.WithLabelValues("completed").Inc()
		log.Printf("worker %d: order %s processed", workerID, task.OrderID)
		p.ack(ctx, task)
		return
	}

	// Failed or timed out. Persist failed; the retry edge moves it back to
	// processing on the next attempt.
	applied, err = p.orders.Transition(ctx, task.OrderID, domain.OrderStatusFailed)
	if err != nil {
		log.Printf("worker %d: fail order %s failed: %v", workerID, task.OrderID, err)
	} else if !applied {
		log.Printf("worker %d: order %s finished elsewhere, dropping task", workerID, task.OrderID)
		p.metrics.OrdersProcessed.WithLabelValues("skipped").Inc()
		p.ack(ctx, task)
		return
	}

	attempt := task.Attempt + 1
	if attempt < p.cfg.MaxAttempts {
		log.Printf("worker %d: order %s attempt %d failed: %v, retrying in %s",
			workerID, task.OrderID, attempt, stepErr, p.cfg.RetryDelay)
		p.metrics.OrdersProcessed.WithLabelValues("retried").Inc()
		p.scheduleRetry(ctx, port.Task{OrderID: task.OrderID, Attempt: attempt})
	} else {
		log.Printf("worker %d: order %s failed permanently after %d attempts: %v",
			workerID, task.OrderID, attempt, stepErr)
		p.metrics.OrdersProcessed.WithLabelValues("failed").Inc()
	}
	p.ack(ctx, task)
}

func (p *Processor) scheduleRetry(ctx context.Context, task port.Task) {
	p.retries.Add(1)
	go func() {
		defer p.retries.Done()
		select {
		case <-time.After(p.cfg.RetryDelay):
		case <-ctx.Done():
			// Shutdown drops the in-process timer; the order stays failed
			// and is visible as such.
			return
		}
		if err := p.queue.Enqueue(context.Background(), task); err != nil {
			log.Printf("retry enqueue failed for order %s: %v", task.OrderID, err)
		}
	}()
}

// requeue puts a task back unchanged after a transient storage error, so the
// attempt does not count against the retry budget.
func (p *Processor) requeue(task port.Task) {
	if err := p.queue.Enqueue(context.Background(), task); err != nil {
		log.Printf("requeue failed for order %s: %v", task.OrderID, err)
	}
}

func (p *Processor) ack(ctx context.Context, task port.Task) {
	if err := p.queue.Ack(ctx, task); err != nil {
		log.Printf("ack failed for order %s: %v", task.OrderID, err)
	}
}
