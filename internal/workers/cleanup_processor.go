// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/countsync/internal/adapters/storage"
	"github.com/ammerola/countsync/internal/core/ports"
)

// cleanupChunk bounds the keys checked per reference query
const cleanupChunk = 500

// CleanupProcessor removes uploaded evidence that no count references
type CleanupProcessor struct {
	counts    ports.CountRepository
	store     ports.EvidenceStore
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor. Evidence younger than
// retention is kept so devices have time to sync the count that uses it.
func NewCleanupProcessor(counts ports.CountRepository, store ports.EvidenceStore, retention time.Duration, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		counts:    counts,
		store:     store,
		retention: retention,
		now:       time.Now,
		logger:    logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupEvidence deletes orphaned evidence objects
func (p *CleanupProcessor) CleanupEvidence(ctx context.Context, t *asynq.Task) error {
	cutoff := p.now().Add(-p.retention)
	p.logger.InfoContext(ctx, "cleaning up orphaned evidence",
		slog.Time("cutoff", cutoff))

	objects, err := p.store.List(ctx, storage.EvidencePrefix, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list evidence: %w", err)
	}

	var deleted, failed int
	for start := 0; start < len(objects); start += cleanupChunk {
		end := min(start+cleanupChunk, len(objects))

		keys := make([]string, 0, end-start)
		for _, obj := range objects[start:end] {
			keys = append(keys, obj.Key)
		}

		referenced, err := p.counts.ReferencedEvidence(ctx, keys)
		if err != nil {
			return fmt.Errorf("failed to check evidence references: %w", err)
		}

		for _, key := range keys {
			if referenced[key] {
				continue
			}
			if err := p.store.Delete(ctx, key); err != nil {
				failed++
				p.logger.WarnContext(ctx, "failed to delete evidence",
					slog.String("key", key),
					slog.String("error", err.Error()))
				continue
			}
			deleted++
		}
	}

	p.logger.InfoContext(ctx, "evidence cleaned up",
		slog.Int("scanned", len(objects)),
		slog.Int("deleted", deleted),
		slog.Int("failed", failed))

	return nil
}
