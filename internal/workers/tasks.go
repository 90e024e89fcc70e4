// internal/workers/tasks.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/ports"
)

const (
	TypeCountRecorded   = "count:recorded"
	TypeCountConflict   = "count:conflict"
	TypeEvidenceCleanup = "evidence:cleanup"
	TypeVarianceReport  = "report:variance"
)

// CountRecordedPayload is published after a count is stored
type CountRecordedPayload struct {
	CountID          uuid.UUID `json:"count_id"`
	BusinessID       uuid.UUID `json:"business_id"`
	ProductID        uuid.UUID `json:"product_id"`
	Quantity         int       `json:"quantity"`
	PreviousQuantity int       `json:"previous_quantity"`
	Difference       int       `json:"difference"`
	Verified         bool      `json:"verified"`
	BatchID          string    `json:"batch_id,omitempty"`
	CountedAt        time.Time `json:"counted_at"`
}

// CountConflictPayload is published when a count is rejected as stale
type CountConflictPayload struct {
	BusinessID   uuid.UUID           `json:"business_id"`
	ProductID    uuid.UUID           `json:"product_id"`
	ConflictData domain.ConflictData `json:"conflict_data"`
	DetectedAt   time.Time           `json:"detected_at"`
}

// VarianceReportPayload requests a variance workbook. A nil business id
// reports every business with counts in the window.
type VarianceReportPayload struct {
	BusinessID *uuid.UUID `json:"business_id,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
}

// TaskEnqueuer is satisfied by *asynq.Client
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Publisher hands count events to the worker through asynq
type Publisher struct {
	client        TaskEnqueuer
	conflictQueue string
	logger        *slog.Logger
}

var _ ports.CountEventPublisher = (*Publisher)(nil)

// NewPublisher creates a publisher. Conflict notifications go to conflictQueue.
func NewPublisher(client TaskEnqueuer, conflictQueue string, logger *slog.Logger) *Publisher {
	if conflictQueue == "" {
		conflictQueue = "critical"
	}
	return &Publisher{
		client:        client,
		conflictQueue: conflictQueue,
		logger:        logger.With(slog.String("component", "publisher")),
	}
}

// CountRecorded enqueues cache invalidation and stats for a stored count
func (p *Publisher) CountRecorded(ctx context.Context, count *domain.InventoryCount) error {
	payload := CountRecordedPayload{
		CountID:          count.ID,
		BusinessID:       count.BusinessID,
		ProductID:        count.ProductID,
		Quantity:         count.Quantity,
		PreviousQuantity: count.PreviousQuantity,
		Difference:       count.Difference,
		Verified:         count.Verified,
		BatchID:          count.BatchID,
		CountedAt:        count.CountedAt,
	}

	return p.enqueue(ctx, TypeCountRecorded, payload,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Retention(time.Hour))
}

// CountConflicted enqueues a conflict notification
func (p *Publisher) CountConflicted(ctx context.Context, businessID, productID uuid.UUID, data domain.ConflictData) error {
	payload := CountConflictPayload{
		BusinessID:   businessID,
		ProductID:    productID,
		ConflictData: data,
		DetectedAt:   time.Now().UTC(),
	}

	return p.enqueue(ctx, TypeCountConflict, payload,
		asynq.Queue(p.conflictQueue),
		asynq.MaxRetry(5),
		asynq.Retention(24*time.Hour))
}

// EnqueueVarianceReport schedules a variance report and returns the task id
func (p *Publisher) EnqueueVarianceReport(ctx context.Context, payload VarianceReportPayload) (string, error) {
	task, err := newTask(TypeVarianceReport, payload)
	if err != nil {
		return "", err
	}

	info, err := p.client.EnqueueContext(ctx, task,
		asynq.Queue("low"),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour))
	if err != nil {
		return "", fmt.Errorf("failed to enqueue variance report: %w", err)
	}

	p.logger.InfoContext(ctx, "variance report queued", slog.String("task_id", info.ID))
	return info.ID, nil
}

func (p *Publisher) enqueue(ctx context.Context, typename string, payload any, opts ...asynq.Option) error {
	task, err := newTask(typename, payload)
	if err != nil {
		return err
	}

	info, err := p.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", typename, err)
	}

	p.logger.DebugContext(ctx, "task enqueued",
		slog.String("type", typename),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))

	return nil
}

func newTask(typename string, payload any) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", typename, err)
	}
	return asynq.NewTask(typename, b), nil
}

// NewEvidenceCleanupTask builds the periodic cleanup task
func NewEvidenceCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeEvidenceCleanup, nil)
}

// NewScheduledVarianceReportTask builds the nightly all-business report task
func NewScheduledVarianceReportTask() *asynq.Task {
	b, _ := json.Marshal(VarianceReportPayload{})
	return asynq.NewTask(TypeVarianceReport, b)
}

func decodePayload(t *asynq.Task, v any) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	return nil
}
