// internal/adapters/redis_adapter/receipts.go
package redis_a

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/ports"
)

// DefaultReceiptTTL bounds how long a batch id is remembered
const DefaultReceiptTTL = 24 * time.Hour

// BatchReceipts stores batch receipts keyed by business and batch id
type BatchReceipts struct {
	cache ports.CacheRepository
	ttl   time.Duration
}

var _ ports.BatchReceiptStore = (*BatchReceipts)(nil)

// NewBatchReceipts creates a receipt store on top of the cache
func NewBatchReceipts(cache ports.CacheRepository, ttl time.Duration) *BatchReceipts {
	if ttl <= 0 {
		ttl = DefaultReceiptTTL
	}
	return &BatchReceipts{cache: cache, ttl: ttl}
}

// Get returns the stored receipt or ports.ErrCacheMiss
func (r *BatchReceipts) Get(ctx context.Context, businessID uuid.UUID, batchID string) (*domain.BatchReceipt, error) {
	var receipt domain.BatchReceipt
	if err := r.cache.Get(ctx, BatchReceiptKey(businessID, batchID), &receipt); err != nil {
		return nil, err
	}
	if receipt.Result == nil {
		return nil, ports.ErrCacheMiss
	}
	return &receipt, nil
}

// Save stores receipt, replacing an earlier one for the same batch. The TTL
// restarts with every save.
func (r *BatchReceipts) Save(ctx context.Context, businessID uuid.UUID, batchID string, receipt *domain.BatchReceipt) error {
	if err := r.cache.SetWithTTL(ctx, BatchReceiptKey(businessID, batchID), receipt, r.ttl); err != nil {
		return fmt.Errorf("failed to save batch receipt: %w", err)
	}
	return nil
}
