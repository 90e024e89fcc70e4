// internal/core/domain/outcome.go
package domain

// OutcomeKind tags a CountOutcome
type OutcomeKind string

const (
	OutcomeAccepted OutcomeKind = "accepted"
	OutcomeConflict OutcomeKind = "conflict"
	OutcomeRejected OutcomeKind = "rejected"
)

// ConflictData is reported when a submission's expected previous quantity
// does not match the authoritative product quantity
type ConflictData struct {
	Expected    int    `json:"expected"`
	Actual      int    `json:"actual"`
	ProductName string `json:"product_name"`
}

// CountOutcome is the result of evaluating a count against authoritative state.
// Exactly one of Conflict or Reason is meaningful depending on Kind.
type CountOutcome struct {
	Kind     OutcomeKind
	Conflict *ConflictData
	Reason   string
}

// Accepted returns an outcome allowing the count to be recorded
func Accepted() CountOutcome {
	return CountOutcome{Kind: OutcomeAccepted}
}

// Conflicted returns an outcome carrying the mismatched quantities
func Conflicted(data ConflictData) CountOutcome {
	return CountOutcome{Kind: OutcomeConflict, Conflict: &data}
}

// Rejected returns an outcome with a terminal reason
func Rejected(reason string) CountOutcome {
	return CountOutcome{Kind: OutcomeRejected, Reason: reason}
}

func (o CountOutcome) IsAccepted() bool { return o.Kind == OutcomeAccepted }
func (o CountOutcome) IsConflict() bool { return o.Kind == OutcomeConflict }
func (o CountOutcome) IsRejected() bool { return o.Kind == OutcomeRejected }

// Err converts a non-accepted outcome into its domain error
func (o CountOutcome) Err() error {
	switch o.Kind {
	case OutcomeConflict:
		return &ConflictError{Data: *o.Conflict}
	case OutcomeRejected:
		return NewValidationError("", o.Reason)
	default:
		return nil
	}
}
