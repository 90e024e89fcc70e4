// internal/core/services/products.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/ports"
)

// Product listing bounds
const (
	DefaultProductLimit = 50
	MaxProductLimit     = 200
)

// ProductService manages the product catalogue counts are taken against
type ProductService struct {
	repo   ports.ProductRepository
	logger *slog.Logger
}

var _ ports.ProductService = (*ProductService)(nil)

// NewProductService creates a new product service
func NewProductService(repo ports.ProductRepository, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		logger: logger.With(slog.String("service", "products")),
	}
}

// Create validates and stores a new product
func (s *ProductService) Create(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	product.PrepareForStorage()

	if err := s.repo.Save(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID.String()),
		slog.String("name", product.Name))

	return nil
}

// Get returns a product or domain.ErrProductNotFound
func (s *ProductService) Get(ctx context.Context, businessID, id uuid.UUID) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, businessID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	return product, nil
}

// Update replaces a product's mutable fields
func (s *ProductService) Update(ctx context.Context, product *domain.Product) error {
	if product.ID == uuid.Nil {
		return domain.NewValidationError("id", "is required")
	}
	if err := product.Validate(); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID.String()))

	return nil
}

// Delete soft deletes a product
func (s *ProductService) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, businessID, id)
}

// List returns a page of products
func (s *ProductService) List(ctx context.Context, params ports.ProductListParams) (*ports.ProductListResult, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultProductLimit
	}
	if params.Limit > MaxProductLimit {
		params.Limit = MaxProductLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	products, total, err := s.repo.FindAll(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}

	return &ports.ProductListResult{
		Products:   products,
		Limit:      params.Limit,
		Offset:     params.Offset,
		TotalCount: total,
	}, nil
}
