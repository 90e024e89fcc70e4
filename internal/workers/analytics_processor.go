// internal/workers/analytics_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	redis_a "github.com/ammerola/countsync/internal/adapters/redis_adapter"
	"github.com/ammerola/countsync/internal/core/ports"
)

// Daily stats counter names
const (
	StatCounts           = "counts"
	StatConflicts        = "conflicts"
	StatAbsoluteVariance = "abs_variance"
)

// DailyStatKey is the counter key of a stat for one UTC day
func DailyStatKey(businessID uuid.UUID, stat string, day time.Time) string {
	return redis_a.StatsKey(businessID, stat+":"+day.UTC().Format("2006-01-02"))
}

// AnalyticsProcessor keeps the product cache and daily count stats current
type AnalyticsProcessor struct {
	cache  ports.CacheRepository
	logger *slog.Logger
}

// NewAnalyticsProcessor creates a new analytics processor
func NewAnalyticsProcessor(cache ports.CacheRepository, logger *slog.Logger) *AnalyticsProcessor {
	return &AnalyticsProcessor{
		cache:  cache,
		logger: logger.With(slog.String("processor", "analytics")),
	}
}

// HandleCountRecorded invalidates the product cache entry of a verified
// count and bumps the daily counters
func (p *AnalyticsProcessor) HandleCountRecorded(ctx context.Context, t *asynq.Task) error {
	var payload CountRecordedPayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}

	if payload.Verified {
		if err := redis_a.InvalidateProduct(ctx, p.cache, payload.BusinessID, payload.ProductID); err != nil {
			return fmt.Errorf("failed to invalidate product cache: %w", err)
		}
	}

	day := payload.CountedAt
	if _, err := p.cache.Increment(ctx, DailyStatKey(payload.BusinessID, StatCounts, day)); err != nil {
		return fmt.Errorf("failed to increment count stats: %w", err)
	}

	if diff := payload.Difference; diff != 0 {
		if diff < 0 {
			diff = -diff
		}
		if _, err := p.cache.IncrementBy(ctx, DailyStatKey(payload.BusinessID, StatAbsoluteVariance, day), int64(diff)); err != nil {
			return fmt.Errorf("failed to increment variance stats: %w", err)
		}
	}

	p.logger.DebugContext(ctx, "count recorded processed",
		slog.String("count_id", payload.CountID.String()),
		slog.String("product_id", payload.ProductID.String()),
		slog.Int("difference", payload.Difference))

	return nil
}
