// internal/adapters/redis_adapter/product_cache.go
package redis_a

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/ports"
)

// errProductAbsent keeps nil lookups out of the cache
var errProductAbsent = errors.New("product absent")

// CachedProductRepository serves product reads from Redis. It must not back
// the count path, which needs the authoritative quantity.
type CachedProductRepository struct {
	ports.ProductRepository
	cache  ports.CacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.ProductRepository = (*CachedProductRepository)(nil)

// NewCachedProductRepository wraps repo with a read-through cache
func NewCachedProductRepository(repo ports.ProductRepository, cache ports.CacheRepository, ttl time.Duration, logger *slog.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		ProductRepository: repo,
		cache:             cache,
		ttl:               ttl,
		logger:            logger.With(slog.String("component", "product_cache")),
	}
}

// FindByID reads through the cache
func (r *CachedProductRepository) FindByID(ctx context.Context, businessID, id uuid.UUID) (*domain.Product, error) {
	var product domain.Product
	err := r.cache.GetOrSet(ctx, ProductKey(businessID, id), &product, func() (interface{}, error) {
		p, err := r.ProductRepository.FindByID(ctx, businessID, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, errProductAbsent
		}
		return p, nil
	}, r.ttl)
	if err != nil {
		if errors.Is(err, errProductAbsent) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// Update writes through and drops the cached copy
func (r *CachedProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if err := r.ProductRepository.Update(ctx, product); err != nil {
		return err
	}
	r.invalidate(ctx, product.BusinessID, product.ID)
	return nil
}

// SoftDelete deletes and drops the cached copy
func (r *CachedProductRepository) SoftDelete(ctx context.Context, businessID, id uuid.UUID) error {
	if err := r.ProductRepository.SoftDelete(ctx, businessID, id); err != nil {
		return err
	}
	r.invalidate(ctx, businessID, id)
	return nil
}

func (r *CachedProductRepository) invalidate(ctx context.Context, businessID, id uuid.UUID) {
	if err := InvalidateProduct(ctx, r.cache, businessID, id); err != nil {
		r.logger.WarnContext(ctx, "failed to invalidate product cache",
			slog.String("product_id", id.String()),
			slog.String("error", err.Error()))
	}
}

// InvalidateProduct removes a cached product
func InvalidateProduct(ctx context.Context, cache ports.CacheRepository, businessID, productID uuid.UUID) error {
	return cache.Delete(ctx, ProductKey(businessID, productID))
}
