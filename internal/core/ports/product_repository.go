// internal/core/ports/product_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/countsync/internal/core/domain"
)

// ProductRepository defines the persistence port for products.
// Every lookup is scoped to a business.
type ProductRepository interface {
	Save(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, businessID, id uuid.UUID) (*domain.Product, error)
	FindAll(ctx context.Context, params ProductListParams) ([]*domain.Product, int64, error)
	SoftDelete(ctx context.Context, businessID, id uuid.UUID) error
}

// ProductListParams holds parameters for listing products
type ProductListParams struct {
	BusinessID uuid.UUID
	Search     string
	Category   string
	Location   string
	Barcode    string
	Limit      int
	Offset     int
}
