package offline

import (
	"context"
	"errors"
	"time"

	"github.com/ammerola/countsync/internal/core/domain"
)

// ErrDeadLetterNotFound is returned when requeueing an unknown dead letter
var ErrDeadLetterNotFound = errors.New("dead letter not found")

// DeadLetterReason records why an operation left the queue without success
type DeadLetterReason string

const (
	ReasonExhausted DeadLetterReason = "exhausted"
	ReasonConflict  DeadLetterReason = "conflict"
	ReasonRejected  DeadLetterReason = "rejected"
)

// DeadLetter is an operation kept for manual reconciliation
type DeadLetter struct {
	Operation Operation            `json:"operation"`
	Reason    DeadLetterReason     `json:"reason"`
	Error     string               `json:"error"`
	Conflict  *domain.ConflictData `json:"conflict,omitempty"`
	DeadAt    time.Time            `json:"dead_at"`
}

// Settlement is the outcome of one sync pass as the store applies it.
// Snapshot lists every operation the pass looked at. Of those, Retry are kept
// with their updated counters, DeadLetters move to the dead-letter list and
// the rest are removed. Operations outside Snapshot are untouched.
type Settlement struct {
	Snapshot    []string
	Retry       []Operation
	DeadLetters []DeadLetter
}

// Store persists the queue, the dead letters and the sync state. Lists are
// returned in enqueue order and hold copies.
type Store interface {
	Append(ctx context.Context, op Operation) error
	Remove(ctx context.Context, id string) error
	List(ctx context.Context) ([]Operation, error)
	Clear(ctx context.Context) error
	// Settle applies a sync pass atomically
	Settle(ctx context.Context, s Settlement) error

	DeadLetters(ctx context.Context) ([]DeadLetter, error)
	// Requeue moves a dead letter back to the end of the queue with its
	// retry count reset
	Requeue(ctx context.Context, id string) (Operation, error)
	PurgeDeadLetters(ctx context.Context) (int, error)

	LastSync(ctx context.Context) (time.Time, error)
	SetLastSync(ctx context.Context, at time.Time) error

	Close() error
}

// PassLocker is implemented by stores that other processes can open too.
// TryLockPass returns ok=false while another holder runs a pass.
type PassLocker interface {
	TryLockPass() (unlock func(), ok bool, err error)
}
