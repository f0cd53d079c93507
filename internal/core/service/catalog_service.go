package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dhnam/shoplite/internal/core/domain"
	"github.com/dhnam/shoplite/internal/metrics"
	"github.com/dhnam/shoplite/internal/port"
)

type CatalogService struct {
	products port.ProductStore
	cache    port.ProductCache
	metrics  *metrics.Metrics
	group    singleflight.Group
}

func NewCatalogService(products port.ProductStore, cache port.ProductCache, m *metrics.Metrics) *CatalogService {
	return &CatalogService{products: products, cache: cache, metrics: m}
}

func (s *CatalogService) Create(ctx context.Context, name string, price float64, stock int) (domain.Product, error) {
	now := time.Now().UTC()
	p := domain.Product{
		ID:        uuid.NewString(),
		Name:      name,
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Get reads through the cache. Concurrent misses for the same product are
// collapsed into a single store load.
func (s *CatalogService) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.cacheOrLoad(ctx, id, func(ctx context.Context) (domain.Product, error) {
		return s.products.GetByID(ctx, id)
	})
}

func (s *CatalogService) cacheOrLoad(ctx context.Context, id string, load func(context.Context) (domain.Product, error)) (domain.Product, error) {
	cached, err := s.cache.Get(ctx, id)
	if err == nil {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	if !errors.Is(err, port.ErrCacheMiss) {
		log.Printf("product cache get failed for %s: %v", id, err)
	}
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()

	v, err, _ := s.group.Do(id, func() (any, error) {
		// The load is shared by every collapsed caller, so it must not die
		// with whichever one happens to lead.
		loadCtx := context.WithoutCancel(ctx)
		p, err := load(loadCtx)
		if err != nil {
			return domain.Product{}, err
		}
		if err := s.cache.Set(loadCtx, p); err != nil {
			log.Printf("product cache set failed for %s: %v", id, err)
		}
		return p, nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return v.(domain.Product), nil
}

func (s *CatalogService) List(ctx context.Context, page, pageSize int, search string) ([]domain.Product, Pagination, error) {
	page, pageSize = normalizePage(page, pageSize)
	products, total, err := s.products.List(ctx, page, pageSize, search)
	if err != nil {
		return nil, Pagination{}, err
	}
	return products, paginate(page, pageSize, total), nil
}

// Update applies a partial update and synchronously invalidates the cache
// entry before returning, so a stale copy cannot outlive the mutation.
func (s *CatalogService) Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	if err := patch.Validate(); err != nil {
		return domain.Product{}, err
	}
	p, err := s.products.Update(ctx, id, patch)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.Printf("product cache invalidate failed for %s: %v", id, err)
	}
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.Printf("product cache invalidate failed for %s: %v", id, err)
	}
	return nil
}
