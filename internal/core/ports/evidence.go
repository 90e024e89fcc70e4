// internal/core/ports/evidence.go
package ports

import (
	"context"
	"io"
	"time"
)

// EvidenceObject is a stored image or voice note
type EvidenceObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// EvidenceStore holds images and voice notes attached to counts
type EvidenceStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	// List returns objects under prefix last modified before olderThan
	List(ctx context.Context, prefix string, olderThan time.Time) ([]EvidenceObject, error)
}
