package offline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// QueueStats summarizes the queue for display
type QueueStats struct {
	Total              int          `json:"total"`
	CountByKind        map[Kind]int `json:"count_by_kind"`
	OldestTimestamp    *time.Time   `json:"oldest_timestamp,omitempty"`
	Retrying           int          `json:"retrying"`
	DeadLettered       int          `json:"dead_lettered"`
	LastSuccessfulSync *time.Time   `json:"last_successful_sync,omitempty"`
}

// Queue is the ordered list of operations awaiting server confirmation
type Queue struct {
	store      Store
	maxRetries int
	now        func() time.Time
	logger     *slog.Logger

	hookMu    sync.RWMutex
	onEnqueue func()
}

// NewQueue creates a queue over store. maxRetries is stamped on operations
// that don't carry their own ceiling; zero means DefaultMaxRetries.
func NewQueue(store Store, maxRetries int, logger *slog.Logger) *Queue {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Queue{
		store:      store,
		maxRetries: maxRetries,
		now:        time.Now,
		logger:     logger.With(slog.String("component", "queue")),
	}
}

// OnEnqueue registers fn to run after every successful enqueue
func (q *Queue) OnEnqueue(fn func()) {
	q.hookMu.Lock()
	defer q.hookMu.Unlock()
	q.onEnqueue = fn
}

// Enqueue validates op, assigns its id and timestamp, and persists it at the
// end of the queue
func (q *Queue) Enqueue(ctx context.Context, op Operation) (string, error) {
	if err := op.Validate(); err != nil {
		return "", err
	}

	op.ID = uuid.NewString()
	op.EnqueuedAt = q.now().UTC()
	op.RetryCount = 0
	op.LastError = ""
	if op.MaxRetries <= 0 {
		op.MaxRetries = q.maxRetries
	}

	if err := q.store.Append(ctx, op); err != nil {
		return "", fmt.Errorf("failed to persist operation: %w", err)
	}

	q.logger.InfoContext(ctx, "operation queued",
		slog.String("operation_id", op.ID),
		slog.String("kind", string(op.Kind)))

	q.hookMu.RLock()
	hook := q.onEnqueue
	q.hookMu.RUnlock()
	if hook != nil {
		hook()
	}

	return op.ID, nil
}

// Dequeue removes one operation. Unknown ids are ignored.
func (q *Queue) Dequeue(ctx context.Context, id string) error {
	if err := q.store.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to remove operation: %w", err)
	}
	return nil
}

// List returns a copy of the queue in enqueue order
func (q *Queue) List(ctx context.Context) ([]Operation, error) {
	ops, err := q.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	return ops, nil
}

// Len returns the number of queued operations
func (q *Queue) Len(ctx context.Context) (int, error) {
	ops, err := q.List(ctx)
	return len(ops), err
}

// Stats summarizes the queue, the dead letters and the last successful sync
func (q *Queue) Stats(ctx context.Context) (QueueStats, error) {
	ops, err := q.List(ctx)
	if err != nil {
		return QueueStats{}, err
	}

	stats := QueueStats{
		Total:       len(ops),
		CountByKind: make(map[Kind]int),
	}
	for _, op := range ops {
		stats.CountByKind[op.Kind]++
		if op.RetryCount > 0 {
			stats.Retrying++
		}
		if stats.OldestTimestamp == nil || op.EnqueuedAt.Before(*stats.OldestTimestamp) {
			t := op.EnqueuedAt
			stats.OldestTimestamp = &t
		}
	}

	dead, err := q.store.DeadLetters(ctx)
	if err != nil {
		return QueueStats{}, fmt.Errorf("failed to list dead letters: %w", err)
	}
	stats.DeadLettered = len(dead)

	last, err := q.store.LastSync(ctx)
	if err != nil {
		return QueueStats{}, fmt.Errorf("failed to read last sync: %w", err)
	}
	if !last.IsZero() {
		stats.LastSuccessfulSync = &last
	}

	return stats, nil
}

// Clear drops every queued operation. Manual recovery only.
func (q *Queue) Clear(ctx context.Context) error {
	if err := q.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	q.logger.WarnContext(ctx, "queue cleared")
	return nil
}

// Replace settles a sync pass: of the operations in snapshot, only retry
// stay queued, keeping their relative order ahead of anything enqueued since
func (q *Queue) Replace(ctx context.Context, snapshot []Operation, retry []Operation, dead []DeadLetter) error {
	ids := make([]string, len(snapshot))
	for i, op := range snapshot {
		ids[i] = op.ID
	}
	if err := q.store.Settle(ctx, Settlement{Snapshot: ids, Retry: retry, DeadLetters: dead}); err != nil {
		return fmt.Errorf("failed to settle sync pass: %w", err)
	}
	return nil
}

// DeadLetters lists operations removed without success
func (q *Queue) DeadLetters(ctx context.Context) ([]DeadLetter, error) {
	dead, err := q.store.DeadLetters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}
	return dead, nil
}

// Requeue moves a dead letter back to the end of the queue
func (q *Queue) Requeue(ctx context.Context, id string) (Operation, error) {
	op, err := q.store.Requeue(ctx, id)
	if err != nil {
		return Operation{}, fmt.Errorf("failed to requeue %s: %w", id, err)
	}
	q.logger.InfoContext(ctx, "dead letter requeued", slog.String("operation_id", id))
	return op, nil
}

// PurgeDeadLetters deletes every dead letter and returns how many there were
func (q *Queue) PurgeDeadLetters(ctx context.Context) (int, error) {
	n, err := q.store.PurgeDeadLetters(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge dead letters: %w", err)
	}
	return n, nil
}

// MarkSynced records a successful sync at t
func (q *Queue) MarkSynced(ctx context.Context, t time.Time) error {
	if err := q.store.SetLastSync(ctx, t); err != nil {
		return fmt.Errorf("failed to record last sync: %w", err)
	}
	return nil
}

// lockPass takes the store's cross-process pass lock when it has one
func (q *Queue) lockPass() (func(), bool, error) {
	locker, ok := q.store.(PassLocker)
	if !ok {
		return func() {}, true, nil
	}
	return locker.TryLockPass()
}
