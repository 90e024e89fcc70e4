// internal/core/services/counts.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/ports"
)

// CountService records physical counts against the product store
type CountService struct {
	products ports.ProductRepository
	counts   ports.CountRepository
	receipts ports.BatchReceiptStore
	events   ports.CountEventPublisher
	detector *ConflictDetector
	now      func() time.Time
	logger   *slog.Logger
}

// Statically assert that *CountService implements the CountService interface.
var _ ports.CountService = (*CountService)(nil)

// NewCountService creates a count service. products must read the
// authoritative store, not a cache. receipts and events may be nil.
func NewCountService(
	products ports.ProductRepository,
	counts ports.CountRepository,
	receipts ports.BatchReceiptStore,
	events ports.CountEventPublisher,
	logger *slog.Logger,
) *CountService {
	return &CountService{
		products: products,
		counts:   counts,
		receipts: receipts,
		events:   events,
		detector: NewConflictDetector(),
		now:      time.Now,
		logger:   logger.With(slog.String("service", "counts")),
	}
}

// SubmitCount validates and records a single count
func (s *CountService) SubmitCount(ctx context.Context, cc domain.CountContext, sub *domain.CountSubmission) (*domain.CountResult, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	result, err := s.record(ctx, cc, sub)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "count recorded",
		slog.String("count_id", result.Count.ID.String()),
		slog.String("product_id", sub.ProductID.String()),
		slog.Int("previous_quantity", result.PreviousQuantity),
		slog.Int("quantity_change", result.QuantityChange))

	return result, nil
}

// SubmitBatch evaluates each entry independently and in order. Outcomes are
// remembered per batch id: a resend of a settled batch returns the stored
// result, and a resend of a batch with infrastructure failures evaluates only
// those entries again.
func (s *CountService) SubmitBatch(ctx context.Context, cc domain.CountContext, req *domain.BatchRequest) (*ports.BatchOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	meta := req.SyncMetadata
	cc.Metadata = &meta
	batchID := meta.BatchID

	result := domain.NewBatchResult()
	indexes := make([]int, len(req.Counts))
	for i := range indexes {
		indexes[i] = i
	}

	if prior := s.loadReceipt(ctx, cc, batchID); prior != nil {
		if prior.Complete() {
			s.logger.InfoContext(ctx, "batch replayed from receipt",
				slog.String("batch_id", batchID),
				slog.String("device_id", meta.DeviceID))
			return &ports.BatchOutcome{Result: prior.Result, Replayed: true}, nil
		}
		s.logger.InfoContext(ctx, "batch resumed from receipt",
			slog.String("batch_id", batchID),
			slog.Int("pending", len(prior.Pending)))
		result = prior.Result.Reopen(prior.Pending)
		indexes = prior.Pending
	}

	var (
		pending []int
		ctxErr  error
	)
	for _, i := range indexes {
		if i < 0 || i >= len(req.Counts) {
			continue
		}
		sub := &req.Counts[i]

		if ctxErr == nil {
			ctxErr = ctx.Err()
		}
		if ctxErr != nil {
			pending = append(pending, i)
			result.Fail(i, sub.ProductID, errors.New("internal error"))
			continue
		}

		if err := sub.Validate(); err != nil {
			result.Fail(i, sub.ProductID, err)
			continue
		}

		res, err := s.record(ctx, cc, sub)
		var conflict *domain.ConflictError
		switch {
		case err == nil:
			result.Succeeded(res.Count.ID)
		case errors.As(err, &conflict):
			result.Conflict(i, sub.ProductID, conflict.Data)
		case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrValidation):
			result.Fail(i, sub.ProductID, err)
		default:
			pending = append(pending, i)
			s.logger.ErrorContext(ctx, "batch entry failed",
				slog.String("batch_id", batchID),
				slog.Int("index", i),
				slog.String("error", err.Error()))
			result.Fail(i, sub.ProductID, errors.New("internal error"))
		}
	}
	result.SortErrors()

	if s.receipts != nil {
		receipt := &domain.BatchReceipt{Result: result, Pending: pending}
		if err := s.receipts.Save(context.WithoutCancel(ctx), cc.BusinessID, batchID, receipt); err != nil {
			s.logger.WarnContext(ctx, "failed to store batch receipt",
				slog.String("batch_id", batchID),
				slog.String("error", err.Error()))
		}
	}
	if ctxErr != nil {
		return nil, ctxErr
	}

	s.logger.InfoContext(ctx, "batch processed",
		slog.String("batch_id", batchID),
		slog.String("device_id", meta.DeviceID),
		slog.Int("processed", result.Processed),
		slog.Int("failed", result.Failed),
		slog.Int("conflicts", result.Conflicts),
		slog.Int("pending", len(pending)))

	return &ports.BatchOutcome{Result: result}, nil
}

func (s *CountService) loadReceipt(ctx context.Context, cc domain.CountContext, batchID string) *domain.BatchReceipt {
	if s.receipts == nil {
		return nil
	}
	prior, err := s.receipts.Get(ctx, cc.BusinessID, batchID)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "failed to read batch receipt",
				slog.String("batch_id", batchID),
				slog.String("error", err.Error()))
		}
		return nil
	}
	return prior
}

// ListCounts returns counts newest first
func (s *CountService) ListCounts(ctx context.Context, filter domain.CountFilter) (*ports.CountListResult, error) {
	filter.Normalize()

	counts, total, err := s.counts.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list counts: %w", err)
	}
	if counts == nil {
		counts = []*domain.InventoryCount{}
	}

	return &ports.CountListResult{
		Counts:     counts,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
		TotalCount: total,
	}, nil
}

// ExportCounts returns counts in a date range, oldest first
func (s *CountService) ExportCounts(ctx context.Context, filter domain.CountRangeFilter) ([]*domain.InventoryCount, error) {
	filter.Normalize()
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.NewValidationError("to", "must not be before from")
	}

	counts, err := s.counts.FindRange(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to export counts: %w", err)
	}

	return counts, nil
}

// record runs the ownership and conflict checks and persists an accepted
// count. The conflict check runs again against the row the repository locks,
// so a count that raced another one is rejected rather than applied.
func (s *CountService) record(ctx context.Context, cc domain.CountContext, sub *domain.CountSubmission) (*domain.CountResult, error) {
	product, err := s.products.FindByID(ctx, cc.BusinessID, sub.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	outcome := s.detector.Check(product, sub.ExpectedPreviousQuantity)
	if outcome.IsConflict() {
		s.conflicted(ctx, cc, product, *outcome.Conflict)
		return nil, outcome.Err()
	}

	count := domain.NewInventoryCount(sub, cc, product.CurrentQuantity, s.now())
	guard := func(locked *domain.Product) error {
		return s.detector.Check(locked, sub.ExpectedPreviousQuantity).Err()
	}
	if err := s.counts.Record(ctx, count, count.Verified, guard); err != nil {
		var conflict *domain.ConflictError
		switch {
		case errors.As(err, &conflict):
			s.conflicted(ctx, cc, product, conflict.Data)
			return nil, err
		case errors.Is(err, domain.ErrProductNotFound):
			return nil, err
		}
		return nil, fmt.Errorf("failed to record count: %w", err)
	}

	if s.events != nil {
		if err := s.events.CountRecorded(ctx, count); err != nil {
			s.logger.WarnContext(ctx, "failed to publish count recorded event",
				slog.String("count_id", count.ID.String()),
				slog.String("error", err.Error()))
		}
	}

	return &domain.CountResult{
		Count:            count,
		PreviousQuantity: count.PreviousQuantity,
		QuantityChange:   count.Difference,
	}, nil
}

func (s *CountService) conflicted(ctx context.Context, cc domain.CountContext, product *domain.Product, data domain.ConflictData) {
	s.logger.WarnContext(ctx, "count conflict detected",
		slog.String("product_id", product.ID.String()),
		slog.Int("expected", data.Expected),
		slog.Int("actual", data.Actual))
	s.publishConflict(ctx, cc, product, data)
}

func (s *CountService) publishConflict(ctx context.Context, cc domain.CountContext, product *domain.Product, data domain.ConflictData) {
	if s.events == nil {
		return
	}
	if err := s.events.CountConflicted(ctx, cc.BusinessID, product.ID, data); err != nil {
		s.logger.WarnContext(ctx, "failed to publish conflict event",
			slog.String("product_id", product.ID.String()),
			slog.String("error", err.Error()))
	}
}
