// internal/core/ports/count_repository.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/countsync/internal/core/domain"
)

// CountRepository defines the persistence port for inventory counts
type CountRepository interface {
	// Record locks the product row, runs guard against it, rebases the
	// count on the locked quantity and inserts it. When applyQuantity is set
	// the product's current quantity moves to the counted quantity in the
	// same transaction. guard may be nil.
	Record(ctx context.Context, count *domain.InventoryCount, applyQuantity bool, guard domain.CountGuard) error
	FindAll(ctx context.Context, filter domain.CountFilter) ([]*domain.InventoryCount, int64, error)
	FindRange(ctx context.Context, filter domain.CountRangeFilter) ([]*domain.InventoryCount, error)
	// ReferencedEvidence reports which of keys appear in any count's images or voice notes
	ReferencedEvidence(ctx context.Context, keys []string) (map[string]bool, error)
	// ActiveBusinesses lists businesses with counts taken in [from, to)
	ActiveBusinesses(ctx context.Context, from, to time.Time) ([]uuid.UUID, error)
}
