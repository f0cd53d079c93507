package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dhnam/shoplite/internal/core/domain"
	"github.com/dhnam/shoplite/internal/port"
)

// fakeStore backs both ProductStore and OrderStore with mutex-guarded maps,
// mirroring the row-lock serialization of the real store.
type fakeStore struct {
	mu       sync.Mutex
	products map[string]domain.Product
	orders   map[string]domain.Order

	getCalls    int
	transitions []domain.OrderStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: make(map[string]domain.Product),
		orders:   make(map[string]domain.Order),
	}
}

func (f *fakeStore) addProduct(p domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
}

func (f *fakeStore) addOrder(o domain.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.ID] = o
}

func (f *fakeStore) stock(productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[productID].Stock
}

func (f *fakeStore) orderStatus(orderID string) domain.OrderStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[orderID].Status
}

func (f *fakeStore) Create(ctx context.Context, p domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeStore) List(ctx context.Context, page, pageSize int, search string) ([]domain.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := []domain.Product{}
	for _, p := range f.products {
		if search == "" || strings.Contains(p.Name, search) {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := len(all)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeStore) Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	f.products[id] = p
	return p, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeStore) Reserve(ctx context.Context, productID string, quantity int) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.products[productID]
	if !ok {
		return domain.Order{}, domain.ErrProductNotFound
	}
	if p.Stock < quantity {
		return domain.Order{}, domain.ErrInsufficientStock
	}

	p.Stock -= quantity
	f.products[productID] = p

	order := domain.Order{
		ID:         uuid.NewString(),
		ProductID:  productID,
		Quantity:   quantity,
		TotalPrice: p.Price * float64(quantity),
		Status:     domain.OrderStatusPending,
	}
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeStore) GetOrderByID(ctx context.Context, id string) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeStore) ListOrders(ctx context.Context, page, pageSize int, status domain.OrderStatus) ([]domain.Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := []domain.Order{}
	for _, o := range f.orders {
		if status == "" || o.Status == status {
			all = append(all, o)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := len(all)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeStore) Transition(ctx context.Context, orderID string, to domain.OrderStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	o, ok := f.orders[orderID]
	if !ok || !domain.CanTransition(o.Status, to) {
		return false, nil
	}
	o.Status = to
	f.orders[orderID] = o
	f.transitions = append(f.transitions, to)
	return true, nil
}

// orderStoreView adapts fakeStore to port.OrderStore, whose GetByID/List
// work on orders rather than products.
type orderStoreView struct{ *fakeStore }

func (v orderStoreView) GetByID(ctx context.Context, id string) (domain.Order, error) {
	return v.GetOrderByID(ctx, id)
}

func (v orderStoreView) List(ctx context.Context, page, pageSize int, status domain.OrderStatus) ([]domain.Order, int, error) {
	return v.ListOrders(ctx, page, pageSize, status)
}

type fakeCache struct {
	mu            sync.Mutex
	entries       map[string]domain.Product
	sets          []string
	invalidations []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]domain.Product)}
}

func (c *fakeCache) Get(ctx context.Context, productID string) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[productID]
	if !ok {
		return domain.Product{}, port.ErrCacheMiss
	}
	return p, nil
}

func (c *fakeCache) Set(ctx context.Context, p domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.ID] = p
	c.sets = append(c.sets, p.ID)
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, productID)
	c.invalidations = append(c.invalidations, productID)
	return nil
}

func (c *fakeCache) invalidated() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.invalidations...)
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []port.Task
	ch    chan port.Task
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{ch: make(chan port.Task, 100)}
}

func (q *fakeQueue) Enqueue(ctx context.Context, task port.Task) error {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
	q.ch <- task
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context) (port.Task, error) {
	select {
	case task := <-q.ch:
		return task, nil
	case <-ctx.Done():
		return port.Task{}, ctx.Err()
	}
}

func (q *fakeQueue) Ack(ctx context.Context, task port.Task) error {
	return nil
}

func (q *fakeQueue) enqueued() []port.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]port.Task(nil), q.tasks...)
}
