package offline

import (
	"fmt"

	"github.com/ammerola/countsync/internal/core/domain"
)

// OutcomeKind tags the result of replaying one operation
type OutcomeKind string

const (
	OutcomeAccepted OutcomeKind = "accepted"
	OutcomeConflict OutcomeKind = "conflict"
	OutcomeRejected OutcomeKind = "rejected"
)

// Outcome is what the server said about one replayed operation.
// Conflict is set only for OutcomeConflict. A rejected outcome is either
// terminal (validation, auth, not found) or transient and worth retrying.
type Outcome struct {
	Kind       OutcomeKind
	Conflict   *domain.ConflictData
	Reason     string
	Terminal   bool
	StatusCode int
}

// Accepted means the server durably recorded the operation
func Accepted(status int) Outcome {
	return Outcome{Kind: OutcomeAccepted, StatusCode: status}
}

// Conflicted means the server rejected a stale expected quantity
func Conflicted(data domain.ConflictData) Outcome {
	return Outcome{
		Kind:       OutcomeConflict,
		Conflict:   &data,
		Reason:     fmt.Sprintf("expected %d but server has %d", data.Expected, data.Actual),
		Terminal:   true,
		StatusCode: 409,
	}
}

// Transient is a failure that may succeed on a later pass
func Transient(status int, reason string) Outcome {
	return Outcome{Kind: OutcomeRejected, Reason: reason, StatusCode: status}
}

// Terminal is a failure that will repeat no matter how often it is replayed
func Terminal(status int, reason string) Outcome {
	return Outcome{Kind: OutcomeRejected, Reason: reason, Terminal: true, StatusCode: status}
}

// Retryable reports whether the operation should stay queued
func (o Outcome) Retryable() bool {
	return o.Kind == OutcomeRejected && !o.Terminal
}

func (o Outcome) String() string {
	if o.Reason == "" {
		return string(o.Kind)
	}
	return fmt.Sprintf("%s: %s", o.Kind, o.Reason)
}
