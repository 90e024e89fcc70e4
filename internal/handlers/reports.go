// internal/handlers/reports.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/ports"
	"github.com/ammerola/countsync/internal/pkg/spreadsheet"
	"github.com/ammerola/countsync/internal/workers"
)

// ReportScheduler queues variance reports for the worker
type ReportScheduler interface {
	EnqueueVarianceReport(ctx context.Context, payload workers.VarianceReportPayload) (string, error)
}

// ReportHandler serves exports, report requests and daily count stats
type ReportHandler struct {
	responder
	service   ports.CountService
	scheduler ReportScheduler
	cache     ports.CacheRepository
	maxRows   int
	now       func() time.Time
}

// NewReportHandler creates a new report handler. scheduler and cache may be
// nil, which disables the endpoints that need them.
func NewReportHandler(service ports.CountService, scheduler ReportScheduler, cache ports.CacheRepository, maxRows int, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		responder: responder{logger: logger.With(slog.String("handler", "reports"))},
		service:   service,
		scheduler: scheduler,
		cache:     cache,
		maxRows:   maxRows,
		now:       time.Now,
	}
}

// ExportCounts handles GET /api/v1/inventory/counts/export
func (h *ReportHandler) ExportCounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	businessID, ok := h.scope(w, r)
	if !ok {
		return
	}

	filter := domain.CountRangeFilter{BusinessID: businessID, MaxRows: h.maxRows}
	if err := parseRangeFilter(r, &filter); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	counts, err := h.service.ExportCounts(ctx, filter)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve counts")
		return
	}

	data, err := spreadsheet.CountsWorkbook(counts)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate Excel file",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	filename := fmt.Sprintf("counts_export_%s.xlsx", h.now().Format("20060102_150405"))
	w.Header().Set("Content-Type", spreadsheet.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(ctx, "failed to write Excel response",
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "count export completed",
		slog.Int("total_rows", len(counts)),
		slog.String("filename", filename))
}

// VarianceReportRequest is the optional body of a report request
type VarianceReportRequest struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// RequestVarianceReport handles POST /api/v1/inventory/reports/variance
func (h *ReportHandler) RequestVarianceReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	businessID, ok := h.scope(w, r)
	if !ok {
		return
	}

	if h.scheduler == nil {
		h.respondError(w, http.StatusServiceUnavailable, "Report queue is not configured")
		return
	}

	var req VarianceReportRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.From != nil && req.To != nil && !req.To.After(*req.From) {
		h.respondError(w, http.StatusBadRequest, "to must be after from")
		return
	}

	taskID, err := h.scheduler.EnqueueVarianceReport(ctx, workers.VarianceReportPayload{
		BusinessID: &businessID,
		From:       req.From,
		To:         req.To,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to queue variance report",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to queue variance report")
		return
	}

	h.respondJSON(w, http.StatusAccepted, map[string]string{
		"task_id": taskID,
		"status":  "queued",
	})
}

// DailyStats is the count activity of a business for one UTC day
type DailyStats struct {
	Date             string `json:"date"`
	Counts           int64  `json:"counts"`
	Conflicts        int64  `json:"conflicts"`
	AbsoluteVariance int64  `json:"absolute_variance"`
}

// GetStats handles GET /api/v1/inventory/stats?date=YYYY-MM-DD
func (h *ReportHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	businessID, ok := h.scope(w, r)
	if !ok {
		return
	}

	if h.cache == nil {
		h.respondError(w, http.StatusServiceUnavailable, "Stats are not available")
		return
	}

	day := h.now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid date: use YYYY-MM-DD")
			return
		}
		day = parsed
	}

	stats := DailyStats{Date: day.Format("2006-01-02")}
	targets := map[string]*int64{
		workers.StatCounts:           &stats.Counts,
		workers.StatConflicts:        &stats.Conflicts,
		workers.StatAbsoluteVariance: &stats.AbsoluteVariance,
	}

	for stat, dest := range targets {
		err := h.cache.Get(ctx, workers.DailyStatKey(businessID, stat, day), dest)
		if err != nil && !errors.Is(err, ports.ErrCacheMiss) {
			h.logger.ErrorContext(ctx, "failed to read stats",
				slog.String("stat", stat),
				slog.String("error", err.Error()))
			h.respondError(w, http.StatusInternalServerError, "Failed to read stats")
			return
		}
	}

	h.respondJSON(w, http.StatusOK, stats)
}
