// internal/core/ports/events.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/countsync/internal/core/domain"
)

// CountEventPublisher hands count lifecycle events to background workers.
// Publishing is best effort; callers log failures and continue.
type CountEventPublisher interface {
	CountRecorded(ctx context.Context, count *domain.InventoryCount) error
	CountConflicted(ctx context.Context, businessID, productID uuid.UUID, data domain.ConflictData) error
}
