// internal/handlers/counts.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/ports"
	"github.com/ammerola/countsync/internal/handlers/middleware"
)

// Response headers of the count endpoints
const (
	HeaderSyncStatus      = "X-Sync-Status"
	HeaderCountID         = "X-Count-ID"
	HeaderIdempotentReply = "X-Idempotent-Replay"
)

// CountHandler handles count submission and retrieval
type CountHandler struct {
	responder
	service ports.CountService
}

// NewCountHandler creates a new count handler
func NewCountHandler(service ports.CountService, logger *slog.Logger) *CountHandler {
	return &CountHandler{
		responder: responder{logger: logger.With(slog.String("handler", "counts"))},
		service:   service,
	}
}

// SubmitCount handles POST /api/v1/inventory/counts
func (h *CountHandler) SubmitCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	businessID, ok := h.scope(w, r)
	if !ok {
		return
	}

	var sub domain.CountSubmission
	if err := decodeJSON(w, r, &sub); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cc := domain.CountContext{
		BusinessID: businessID,
		CountedBy:  middleware.UserID(ctx),
	}

	result, err := h.service.SubmitCount(ctx, cc, &sub)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to record count")
		return
	}

	w.Header().Set(HeaderSyncStatus, "synced")
	w.Header().Set(HeaderCountID, result.Count.ID.String())
	h.respondJSON(w, http.StatusCreated, result)
}

// SubmitBatch handles POST /api/v1/inventory/counts/batch. The response is
// 201 when every entry was recorded and 207 otherwise.
func (h *CountHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	businessID, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req domain.BatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cc := domain.CountContext{
		BusinessID: businessID,
		CountedBy:  middleware.UserID(ctx),
	}

	outcome, err := h.service.SubmitBatch(ctx, cc, &req)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to process batch")
		return
	}

	if outcome.Replayed {
		w.Header().Set(HeaderIdempotentReply, "true")
	}

	status := http.StatusCreated
	if outcome.Result.Failed > 0 {
		status = http.StatusMultiStatus
	}

	h.logger.InfoContext(ctx, "batch processed",
		slog.String("batch_id", req.SyncMetadata.BatchID),
		slog.String("device_id", req.SyncMetadata.DeviceID),
		slog.Int("processed", outcome.Result.Processed),
		slog.Int("failed", outcome.Result.Failed),
		slog.Int("conflicts", outcome.Result.Conflicts),
		slog.Bool("replayed", outcome.Replayed))

	h.respondJSON(w, status, outcome.Result)
}

// ListCounts handles GET /api/v1/inventory/counts
func (h *CountHandler) ListCounts(w http.ResponseWriter, r *http.Request) {
	businessID, ok := h.scope(w, r)
	if !ok {
		return
	}

	filter := domain.CountFilter{
		BusinessID: businessID,
		Limit:      parseIntParam(r, "limit"),
		Offset:     parseIntParam(r, "offset"),
	}

	var err error
	if filter.ProductID, err = parseOptionalUUID(r, "product_id"); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.SessionID, err = parseOptionalUUID(r, "session_id"); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.ListCounts(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to list counts")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// parseRangeFilter reads the export filters shared by the export endpoints
func parseRangeFilter(r *http.Request, filter *domain.CountRangeFilter) error {
	var err error
	if filter.ProductID, err = parseOptionalUUID(r, "product_id"); err != nil {
		return err
	}
	if filter.SessionID, err = parseOptionalUUID(r, "session_id"); err != nil {
		return err
	}
	if filter.From, err = parseTimeParam(r, "from"); err != nil {
		return err
	}
	if filter.To, err = parseTimeParam(r, "to"); err != nil {
		return err
	}
	switch v := r.URL.Query().Get("variance_only"); v {
	case "", "false", "0":
	case "true", "1":
		filter.VarianceOnly = true
	default:
		return fmt.Errorf("invalid variance_only")
	}
	return nil
}
