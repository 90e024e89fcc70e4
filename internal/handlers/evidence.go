// internal/handlers/evidence.go
package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ammerola/countsync/internal/adapters/storage"
	"github.com/ammerola/countsync/internal/core/ports"
)

// EvidenceHandler stores count images and voice notes
type EvidenceHandler struct {
	responder
	store     ports.EvidenceStore
	maxSize   int64
	urlExpiry time.Duration
	now       func() time.Time
}

// NewEvidenceHandler creates a new evidence handler
func NewEvidenceHandler(store ports.EvidenceStore, maxSize int64, urlExpiry time.Duration, logger *slog.Logger) *EvidenceHandler {
	return &EvidenceHandler{
		responder: responder{logger: logger.With(slog.String("handler", "evidence"))},
		store:     store,
		maxSize:   maxSize,
		urlExpiry: urlExpiry,
		now:       time.Now,
	}
}

// EvidenceResponse identifies a stored evidence object. Key is what a count
// lists in images or voice_notes.
type EvidenceResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Size      int64     `json:"size,omitempty"`
}

// UploadEvidence handles POST /api/v1/inventory/counts/evidence
func (h *EvidenceHandler) UploadEvidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	businessID, ok := h.scope(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+1<<20)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		h.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxSize {
		h.respondError(w, http.StatusRequestEntityTooLarge, "File is too large")
		return
	}

	contentType := storage.ContentTypeFor(header.Filename, header.Header.Get("Content-Type"))
	if !isEvidenceType(contentType) {
		h.respondError(w, http.StatusUnsupportedMediaType, "Only image and audio files are allowed")
		return
	}

	now := h.now()
	key := storage.EvidenceKey(businessID, now, header.Filename)

	if _, err := h.store.Upload(ctx, key, file, contentType); err != nil {
		h.logger.ErrorContext(ctx, "failed to store evidence",
			slog.String("key", key),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to store evidence")
		return
	}

	url, err := h.store.GetPresignedURL(ctx, key, h.urlExpiry)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to presign evidence",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	h.logger.InfoContext(ctx, "evidence stored",
		slog.String("key", key),
		slog.String("content_type", contentType),
		slog.Int64("size", header.Size))

	h.respondJSON(w, http.StatusCreated, EvidenceResponse{
		Key:       key,
		URL:       url,
		ExpiresAt: now.Add(h.urlExpiry),
		Size:      header.Size,
	})
}

// GetEvidenceURL handles GET /api/v1/inventory/counts/evidence?key=...
func (h *EvidenceHandler) GetEvidenceURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	businessID, ok := h.scope(w, r)
	if !ok {
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		h.respondError(w, http.StatusBadRequest, "key is required")
		return
	}
	if !storage.OwnsEvidence(businessID, key) {
		h.respondError(w, http.StatusNotFound, "Evidence not found")
		return
	}

	url, err := h.store.GetPresignedURL(ctx, key, h.urlExpiry)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to presign evidence",
			slog.String("key", key),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to create evidence URL")
		return
	}

	h.respondJSON(w, http.StatusOK, EvidenceResponse{
		Key:       key,
		URL:       url,
		ExpiresAt: h.now().Add(h.urlExpiry),
	})
}

func isEvidenceType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "audio/")
}
