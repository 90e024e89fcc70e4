// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/handlers/middleware"
)

// maxJSONBody bounds request bodies of the JSON endpoints
const maxJSONBody = 1 << 20

// responder carries the response helpers shared by every handler
type responder struct {
	logger *slog.Logger
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h responder) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// respondConflict writes the 409 body devices use to dead-letter a count
func (h responder) respondConflict(w http.ResponseWriter, data domain.ConflictData) {
	h.respondJSON(w, http.StatusConflict, ConflictResponse{
		Error:        "Conflict detected",
		ConflictData: data,
	})
}

// respondServiceError maps domain errors to status codes; anything
// unrecognised is logged and reported as fallback with a 500
func (h responder) respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var conflict *domain.ConflictError
	var validation *domain.ValidationError

	switch {
	case errors.As(err, &conflict):
		h.respondConflict(w, conflict.Data)
	case errors.As(err, &validation):
		h.respondError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, domain.ErrEmptyBatch), errors.Is(err, domain.ErrBatchTooLarge):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		h.respondError(w, http.StatusNotFound, "Product not found")
	default:
		h.logger.ErrorContext(r.Context(), fallback,
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// ConflictResponse is the body of a 409 response
type ConflictResponse struct {
	Error        string              `json:"error"`
	ConflictData domain.ConflictData `json:"conflict_data"`
}

// scope returns the request's business, writing a 401 when it is missing.
// Routes are wrapped in BusinessScope so this only fails when misrouted.
func (h responder) scope(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	businessID, ok := middleware.BusinessID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "X-Business-ID header is required")
	}
	return businessID, ok
}

func parseOptionalUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &id, nil
}

func parseIntParam(r *http.Request, name string) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil {
		return v
	}
	return 0
}

// parseTimeParam accepts RFC3339 or a plain date
func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: use RFC3339 or YYYY-MM-DD", name)
	}
	return &t, nil
}
