package port

import (
	"context"
	"errors"

	"github.com/dhnam/shoplite/internal/core/domain"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// ProductCache is a best-effort acceleration layer for product reads. It is
// never authoritative: every mutation path invalidates the entry before
// returning, and reads fall back to the store on any cache error.
type ProductCache interface {
	Get(ctx context.Context, productID string) (domain.Product, error)

	Set(ctx context.Context, p domain.Product) error

	Invalidate(ctx context.Context, productID string) error
}
