// internal/core/ports/count_service.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/countsync/internal/core/domain"
)

// CountService defines the application service port for inventory counts.
// This interface is implemented by the application service.
type CountService interface {
	SubmitCount(ctx context.Context, cc domain.CountContext, sub *domain.CountSubmission) (*domain.CountResult, error)
	SubmitBatch(ctx context.Context, cc domain.CountContext, req *domain.BatchRequest) (*BatchOutcome, error)
	ListCounts(ctx context.Context, filter domain.CountFilter) (*CountListResult, error)
	ExportCounts(ctx context.Context, filter domain.CountRangeFilter) ([]*domain.InventoryCount, error)
}

// BatchOutcome wraps a batch result with whether it was served from a
// previous submission of the same batch id
type BatchOutcome struct {
	Result   *domain.BatchResult
	Replayed bool
}

// CountListResult holds a page of counts
type CountListResult struct {
	Counts     []*domain.InventoryCount `json:"counts"`
	Limit      int                      `json:"limit"`
	Offset     int                      `json:"offset"`
	TotalCount int64                    `json:"total_count"`
}

// ProductService defines the application service port for products
type ProductService interface {
	Create(ctx context.Context, product *domain.Product) error
	Get(ctx context.Context, businessID, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, businessID, id uuid.UUID) error
	List(ctx context.Context, params ProductListParams) (*ProductListResult, error)
}

// ProductListResult holds a page of products
type ProductListResult struct {
	Products   []*domain.Product `json:"products"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
	TotalCount int64             `json:"total_count"`
}
