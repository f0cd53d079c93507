package port

import (
	"context"

	"github.com/dhnam/shoplite/internal/core/domain"
)

type ProductStore interface {
	// Create persists a new product.
	Create(ctx context.Context, p domain.Product) error

	// GetByID returns domain.ErrProductNotFound if the product does not exist.
	GetByID(ctx context.Context, id string) (domain.Product, error)

	// List returns one page of products, newest first, and the total count.
	// search filters by name substring when non-empty.
	List(ctx context.Context, page, pageSize int, search string) ([]domain.Product, int, error)

	// Update applies the non-nil fields of patch.
	Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error)

	// Delete returns domain.ErrProductNotFound if nothing was removed.
	Delete(ctx context.Context, id string) error
}

type OrderStore interface {
	// Reserve atomically checks and decrements product stock and inserts the
	// order in a single transaction. The product row is exclusively locked
	// for the duration; no partial mutation survives a failure.
	Reserve(ctx context.Context, productID string, quantity int) (domain.Order, error)

	// GetByID returns domain.ErrOrderNotFound if the order does not exist.
	GetByID(ctx context.Context, id string) (domain.Order, error)

	// List returns one page of orders, newest first, and the total count.
	// status filters when non-empty.
	List(ctx context.Context, page, pageSize int, status domain.OrderStatus) ([]domain.Order, int, error)

	// Transition moves the order to the given status if the change is legal
	// from its current status. Returns false when the order is missing or
	// already past the requested state.
	Transition(ctx context.Context, orderID string, to domain.OrderStatus) (bool, error)
}
