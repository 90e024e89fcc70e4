// internal/core/ports/cache.go
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/countsync/internal/core/domain"
)

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository defines the interface for cache operations
type CacheRepository interface {
	// Basic operations
	Set(ctx context.Context, key string, value interface{}) error
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, keys ...string) (bool, error)

	// Advanced operations
	GetOrSet(ctx context.Context, key string, dest interface{},
		fetch func() (interface{}, error), ttl time.Duration) error

	// Counter operations
	Increment(ctx context.Context, key string) (int64, error)
	IncrementBy(ctx context.Context, key string, value int64) (int64, error)

	// Conditional operations
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	Ping(ctx context.Context) error
}

// BatchReceiptStore remembers batch outcomes so a device resending the same
// batch id never records an entry twice
type BatchReceiptStore interface {
	Get(ctx context.Context, businessID uuid.UUID, batchID string) (*domain.BatchReceipt, error)
	Save(ctx context.Context, businessID uuid.UUID, batchID string, receipt *domain.BatchReceipt) error
}
