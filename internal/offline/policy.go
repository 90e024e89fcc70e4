package offline

// RetryPolicy decides how many failed passes an operation survives before it
// is dead-lettered. An operation's own MaxRetries wins over the policy.
type RetryPolicy struct {
	MaxRetries int
}

// DefaultRetryPolicy returns the policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: DefaultMaxRetries}
}

// Ceiling returns the retry ceiling that applies to op
func (p RetryPolicy) Ceiling(op Operation) int {
	if op.MaxRetries > 0 {
		return op.MaxRetries
	}
	if p.MaxRetries > 0 {
		return p.MaxRetries
	}
	return DefaultMaxRetries
}

// ShouldRetry reports whether op, after its latest failure was counted in
// RetryCount, stays in the queue for another pass
func (p RetryPolicy) ShouldRetry(op Operation) bool {
	return op.RetryCount < p.Ceiling(op)
}

// Exhausted is the complement of ShouldRetry
func (p RetryPolicy) Exhausted(op Operation) bool {
	return !p.ShouldRetry(op)
}
