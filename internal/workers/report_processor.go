// internal/workers/report_processor.go
package workers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/countsync/internal/adapters/storage"
	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/ports"
	"github.com/ammerola/countsync/internal/pkg/spreadsheet"
)

// ReportProcessor builds variance workbooks and uploads them to the evidence store
type ReportProcessor struct {
	counts  ports.CountRepository
	store   ports.EvidenceStore
	maxRows int
	now     func() time.Time
	logger  *slog.Logger
}

// NewReportProcessor creates a new report processor
func NewReportProcessor(counts ports.CountRepository, store ports.EvidenceStore, maxRows int, logger *slog.Logger) *ReportProcessor {
	return &ReportProcessor{
		counts:  counts,
		store:   store,
		maxRows: maxRows,
		now:     time.Now,
		logger:  logger.With(slog.String("processor", "report")),
	}
}

// HandleVarianceReport reports the requested window, defaulting to the
// previous UTC day
func (p *ReportProcessor) HandleVarianceReport(ctx context.Context, t *asynq.Task) error {
	var payload VarianceReportPayload
	if len(t.Payload()) > 0 {
		if err := decodePayload(t, &payload); err != nil {
			return err
		}
	}

	from, to := p.window(payload)
	if !to.After(from) {
		return fmt.Errorf("empty report window %s to %s: %w", from, to, asynq.SkipRetry)
	}

	businesses := []uuid.UUID{}
	if payload.BusinessID != nil {
		businesses = append(businesses, *payload.BusinessID)
	} else {
		active, err := p.counts.ActiveBusinesses(ctx, from, to)
		if err != nil {
			return fmt.Errorf("failed to load active businesses: %w", err)
		}
		businesses = active
	}

	for _, businessID := range businesses {
		key, rows, err := p.report(ctx, businessID, from, to)
		if err != nil {
			return err
		}
		p.logger.InfoContext(ctx, "variance report uploaded",
			slog.String("business_id", businessID.String()),
			slog.String("key", key),
			slog.Int("rows", rows))
	}

	return nil
}

func (p *ReportProcessor) window(payload VarianceReportPayload) (time.Time, time.Time) {
	to := p.now().UTC().Truncate(24 * time.Hour)
	if payload.To != nil {
		to = *payload.To
	}
	from := to.Add(-24 * time.Hour)
	if payload.From != nil {
		from = *payload.From
	}
	return from, to
}

func (p *ReportProcessor) report(ctx context.Context, businessID uuid.UUID, from, to time.Time) (string, int, error) {
	counts, err := p.counts.FindRange(ctx, domain.CountRangeFilter{
		BusinessID:   businessID,
		From:         &from,
		To:           &to,
		VarianceOnly: true,
		MaxRows:      p.maxRows,
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to load counts: %w", err)
	}

	data, err := spreadsheet.VarianceWorkbook(counts, from, to)
	if err != nil {
		return "", 0, fmt.Errorf("failed to build workbook: %w", err)
	}

	key := storage.VarianceReportKey(businessID, p.now())
	if _, err := p.store.Upload(ctx, key, bytes.NewReader(data), spreadsheet.ContentType); err != nil {
		return "", 0, fmt.Errorf("failed to upload report: %w", err)
	}

	return key, len(counts), nil
}
