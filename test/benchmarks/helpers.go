// test/benchmarks/helpers.go
package benchmarks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/offline"
)

// acceptAll is a dispatcher that confirms every operation immediately
type acceptAll struct{}

func (acceptAll) Dispatch(context.Context, offline.Operation) offline.Outcome {
	return offline.Accepted(201)
}

// generateCounts builds n recorded counts spread over products products,
// each with a small variance
func generateCounts(n, products int) []*domain.InventoryCount {
	summaries := make([]*domain.ProductSummary, products)
	for i := range summaries {
		summaries[i] = &domain.ProductSummary{
			ID:       uuid.New(),
			Name:     fmt.Sprintf("Product %03d", i),
			SKU:      fmt.Sprintf("BENCH-%04d", i),
			Category: domain.CategoryGeneral,
		}
	}

	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	counts := make([]*domain.InventoryCount, n)
	for i := range counts {
		p := summaries[i%products]
		previous := 50 + i%7
		quantity := previous + (i%5 - 2)
		counts[i] = &domain.InventoryCount{
			ID:               uuid.New(),
			ProductID:        p.ID,
			Quantity:         quantity,
			PreviousQuantity: previous,
			Difference:       quantity - previous,
			Location:         "Aisle 3",
			CountedBy:        "bench",
			CountedAt:        base.Add(time.Duration(i) * time.Minute),
			SyncPriority:     1,
			Product:          p,
		}
	}
	return counts
}

// countOperations builds n valid count operations for one product
func countOperations(n int) ([]offline.Operation, error) {
	productID := uuid.New()
	ops := make([]offline.Operation, n)
	for i := range ops {
		qty := i
		op, err := offline.NewCountOperation(&domain.CountSubmission{ProductID: productID, Quantity: &qty})
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}
	return ops, nil
}
