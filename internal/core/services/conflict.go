// internal/core/services/conflict.go
package services

import "github.com/ammerola/countsync/internal/core/domain"

// ConflictDetector compares what a device believed the product quantity was
// against the authoritative quantity. It is shared by the single and batch paths.
type ConflictDetector struct{}

// NewConflictDetector creates a conflict detector
func NewConflictDetector() *ConflictDetector {
	return &ConflictDetector{}
}

// Check returns Accepted when no expectation was sent or it matches,
// otherwise a Conflict carrying both quantities.
func (d *ConflictDetector) Check(product *domain.Product, expectedPrevious *int) domain.CountOutcome {
	if expectedPrevious == nil || *expectedPrevious == product.CurrentQuantity {
		return domain.Accepted()
	}

	return domain.Conflicted(domain.ConflictData{
		Expected:    *expectedPrevious,
		Actual:      product.CurrentQuantity,
		ProductName: product.Name,
	})
}
