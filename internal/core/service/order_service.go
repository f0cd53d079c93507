package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dhnam/shoplite/internal/core/domain"
	"github.com/dhnam/shoplite/internal/metrics"
	"github.com/dhnam/shoplite/internal/port"
)

type OrderService struct {
	orders  port.OrderStore
	cache   port.ProductCache
	queue   port.TaskQueue
	metrics *metrics.Metrics
}

func NewOrderService(orders port.OrderStore, cache port.ProductCache, queue port.TaskQueue, m *metrics.Metrics) *OrderService {
	return &OrderService{orders: orders, cache: cache, queue: queue, metrics: m}
}

// Reserve places an order for quantity units of the product. The atomic
// check-decrement-insert runs inside the store under an exclusive row lock;
// cache invalidation and task dispatch happen after commit, outside the lock.
// Failure paths leave no side effects.
func (s *OrderService) Reserve(ctx context.Context, productID string, quantity int) (domain.Order, error) {
	if quantity < 1 {
		return domain.Order{}, domain.ErrInvalidQuantity
	}

	start := time.Now()
	order, err := s.orders.Reserve(ctx, productID, quantity)
	s.metrics.ReserveSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.Purchases.WithLabelValues(reserveResult(err)).Inc()
		return domain.Order{}, err
	}
	s.metrics.Purchases.WithLabelValues("success").Inc()

	if err := s.cache.Invalidate(ctx, productID); err != nil {
		log.Printf("cache invalidate failed for product %s: %v", productID, err)
	}
	if err := s.queue.Enqueue(ctx, port.Task{OrderID: order.ID}); err != nil {
		// The order is committed; it stays pending until a task reaches it.
		log.Printf("enqueue failed for order %s: %v", order.ID, err)
	}

	return order, nil
}

func reserveResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrConstraintViolated):
		return "constraint_violated"
	default:
		return "error"
	}
}

func (s *OrderService) Get(ctx context.Context, id string) (domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *OrderService) List(ctx context.Context, page, pageSize int, status domain.OrderStatus) ([]domain.Order, Pagination, error) {
	page, pageSize = normalizePage(page, pageSize)
	orders, total, err := s.orders.List(ctx, page, pageSize, status)
	if err != nil {
		return nil, Pagination{}, err
	}
	return orders, paginate(page, pageSize, total), nil
}
