package offline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultOperationDelay spaces out requests within a pass
const DefaultOperationDelay = 200 * time.Millisecond

// Dispatcher sends one operation to the server
type Dispatcher interface {
	Dispatch(ctx context.Context, op Operation) Outcome
}

// Connectivity reports whether the server is currently reachable
type Connectivity interface {
	Online() bool
}

// ConnectivityFunc adapts a function to Connectivity
type ConnectivityFunc func() bool

func (f ConnectivityFunc) Online() bool { return f() }

// SkipReason explains a pass that did nothing
type SkipReason string

const (
	SkipNone       SkipReason = ""
	SkipInProgress SkipReason = "in_progress"
	SkipOffline    SkipReason = "offline"
	SkipEmpty      SkipReason = "empty"
)

// SyncReport holds the counters of one sync pass
type SyncReport struct {
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Skipped    SkipReason `json:"skipped,omitempty"`
	Attempted  int        `json:"attempted"`
	Succeeded  int        `json:"succeeded"`
	// Failed counts transient failures, including those that exhausted
	Failed     int `json:"failed"`
	Conflicted int `json:"conflicted"`
	Rejected   int `json:"rejected"`
	// Dropped counts operations that reached their retry ceiling this pass
	Dropped   int `json:"dropped"`
	Remaining int `json:"remaining"`
}

func (r SyncReport) String() string {
	if r.Skipped != SkipNone {
		return fmt.Sprintf("sync skipped (%s)", r.Skipped)
	}
	return fmt.Sprintf("%d synced, %d failed, %d conflicted, %d rejected, %d dropped, %d remaining",
		r.Succeeded, r.Failed, r.Conflicted, r.Rejected, r.Dropped, r.Remaining)
}

// Executor replays the queue against the server one operation at a time
type Executor struct {
	queue        *Queue
	dispatcher   Dispatcher
	connectivity Connectivity
	policy       RetryPolicy
	limiter      *rate.Limiter
	now          func() time.Time
	logger       *slog.Logger

	mu sync.Mutex
}

// NewExecutor creates an executor. delay is the pause between operations;
// zero disables pacing.
func NewExecutor(queue *Queue, dispatcher Dispatcher, connectivity Connectivity, policy RetryPolicy, delay time.Duration, logger *slog.Logger) *Executor {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Executor{
		queue:        queue,
		dispatcher:   dispatcher,
		connectivity: connectivity,
		policy:       policy,
		limiter:      rate.NewLimiter(limit, 1),
		now:          time.Now,
		logger:       logger.With(slog.String("component", "executor")),
	}
}

// Sync runs one pass over a snapshot of the queue. It is a no-op while
// another pass is running (in this process or, when the store supports
// PassLocker, in another one), while offline, and when the queue is empty.
// Per-operation failures are counted in the report; only store errors are
// returned.
func (e *Executor) Sync(ctx context.Context) (SyncReport, error) {
	report := SyncReport{StartedAt: e.now().UTC()}

	if !e.mu.TryLock() {
		report.Skipped = SkipInProgress
		return report, nil
	}
	defer e.mu.Unlock()

	unlock, ok, err := e.queue.lockPass()
	if err != nil {
		return report, err
	}
	if !ok {
		e.logger.InfoContext(ctx, "another process is syncing this queue")
		report.Skipped = SkipInProgress
		return report, nil
	}
	defer unlock()

	if !e.connectivity.Online() {
		report.Skipped = SkipOffline
		return report, nil
	}

	snapshot, err := e.queue.List(ctx)
	if err != nil {
		return report, err
	}
	if len(snapshot) == 0 {
		report.Skipped = SkipEmpty
		return report, nil
	}

	e.logger.InfoContext(ctx, "sync pass started", slog.Int("operations", len(snapshot)))

	var (
		retry []Operation
		dead  []DeadLetter
	)
	for i, op := range snapshot {
		// Operations not reached before cancellation stay as they are
		if err := e.limiter.Wait(ctx); err != nil {
			retry = append(retry, snapshot[i:]...)
			break
		}

		report.Attempted++
		outcome := e.dispatcher.Dispatch(ctx, op)
		log := e.logger.With(
			slog.String("operation_id", op.ID),
			slog.String("kind", string(op.Kind)),
			slog.String("outcome", string(outcome.Kind)))

		switch {
		case outcome.Kind == OutcomeAccepted:
			report.Succeeded++
			log.DebugContext(ctx, "operation synced")

		case outcome.Kind == OutcomeConflict:
			report.Conflicted++
			dead = append(dead, e.deadLetter(op, ReasonConflict, outcome))
			log.WarnContext(ctx, "operation conflicted", slog.String("reason", outcome.Reason))

		case outcome.Terminal:
			report.Rejected++
			dead = append(dead, e.deadLetter(op, ReasonRejected, outcome))
			log.WarnContext(ctx, "operation rejected", slog.String("reason", outcome.Reason))

		default:
			report.Failed++
			op.RetryCount++
			op.LastError = outcome.Reason
			if e.policy.ShouldRetry(op) {
				retry = append(retry, op)
				log.InfoContext(ctx, "operation will be retried",
					slog.Int("retry_count", op.RetryCount),
					slog.String("reason", outcome.Reason))
				continue
			}
			report.Dropped++
			dead = append(dead, e.deadLetter(op, ReasonExhausted, outcome))
			log.ErrorContext(ctx, "operation exhausted its retries",
				slog.Int("retry_count", op.RetryCount),
				slog.String("reason", outcome.Reason))
		}
	}

	// Settle even when ctx was cancelled so finished work is not replayed
	settleCtx := context.WithoutCancel(ctx)
	if err := e.queue.Replace(settleCtx, snapshot, retry, dead); err != nil {
		return report, err
	}
	if report.Succeeded > 0 {
		if err := e.queue.MarkSynced(settleCtx, e.now().UTC()); err != nil {
			return report, err
		}
	}

	remaining, err := e.queue.Len(settleCtx)
	if err != nil {
		return report, err
	}
	report.Remaining = remaining
	report.FinishedAt = e.now().UTC()

	e.logger.InfoContext(ctx, "sync pass finished",
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("conflicted", report.Conflicted),
		slog.Int("rejected", report.Rejected),
		slog.Int("dropped", report.Dropped),
		slog.Int("remaining", report.Remaining))

	return report, nil
}

func (e *Executor) deadLetter(op Operation, reason DeadLetterReason, outcome Outcome) DeadLetter {
	op.LastError = outcome.Reason
	return DeadLetter{
		Operation: op,
		Reason:    reason,
		Error:     outcome.Reason,
		Conflict:  outcome.Conflict,
		DeadAt:    e.now().UTC(),
	}
}
