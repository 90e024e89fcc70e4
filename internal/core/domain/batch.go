// internal/core/domain/batch.go
package domain

import (
	"cmp"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// MaxBatchSize is the largest number of counts accepted in one batch request
const MaxBatchSize = 50

// SyncMetadata describes the device and batch a set of counts came from
type SyncMetadata struct {
	DeviceID          string         `json:"device_id"`
	BatchID           string         `json:"batch_id"`
	OfflineDurationMs *int64         `json:"offline_duration_ms,omitempty"`
	NetworkQuality    NetworkQuality `json:"network_quality,omitempty"`
}

// BatchRequest is a bulk submission of queued counts
type BatchRequest struct {
	Counts       []CountSubmission `json:"counts"`
	SyncMetadata SyncMetadata      `json:"sync_metadata"`
}

// Validate checks the envelope. Individual counts are validated while the
// batch is processed so one bad entry does not reject the rest.
func (b *BatchRequest) Validate() error {
	if len(b.Counts) == 0 {
		return ErrEmptyBatch
	}
	if len(b.Counts) > MaxBatchSize {
		return ErrBatchTooLarge
	}
	if strings.TrimSpace(b.SyncMetadata.DeviceID) == "" {
		return NewValidationError("sync_metadata.device_id", "is required")
	}
	if strings.TrimSpace(b.SyncMetadata.BatchID) == "" {
		return NewValidationError("sync_metadata.batch_id", "is required")
	}
	return nil
}

// BatchItemError reports why a single batch entry was not processed
type BatchItemError struct {
	Index        int           `json:"index"`
	ProductID    uuid.UUID     `json:"product_id"`
	Error        string        `json:"error"`
	ConflictData *ConflictData `json:"conflict_data,omitempty"`
}

// BatchResult is the per-item outcome report of a batch
type BatchResult struct {
	Processed int              `json:"processed"`
	Failed    int              `json:"failed"`
	Conflicts int              `json:"conflicts"`
	Errors    []BatchItemError `json:"errors"`
	CountIDs  []uuid.UUID      `json:"count_ids"`
}

// NewBatchResult returns an empty result with non-nil slices
func NewBatchResult() *BatchResult {
	return &BatchResult{
		Errors:   []BatchItemError{},
		CountIDs: []uuid.UUID{},
	}
}

// Succeeded records an accepted entry
func (r *BatchResult) Succeeded(id uuid.UUID) {
	r.Processed++
	r.CountIDs = append(r.CountIDs, id)
}

// Fail records a rejected entry
func (r *BatchResult) Fail(index int, productID uuid.UUID, err error) {
	r.Failed++
	r.Errors = append(r.Errors, BatchItemError{
		Index:     index,
		ProductID: productID,
		Error:     err.Error(),
	})
}

// Conflict records an entry rejected by the conflict check
func (r *BatchResult) Conflict(index int, productID uuid.UUID, data ConflictData) {
	r.Failed++
	r.Conflicts++
	r.Errors = append(r.Errors, BatchItemError{
		Index:        index,
		ProductID:    productID,
		Error:        ErrConflict.Error(),
		ConflictData: &data,
	})
}

// PartialSuccess reports whether any entry failed
func (r *BatchResult) PartialSuccess() bool {
	return r.Failed > 0
}

// Reopen returns a copy without the errors recorded for indexes, so those
// entries can be evaluated again. Successful entries are kept.
func (r *BatchResult) Reopen(indexes []int) *BatchResult {
	out := &BatchResult{
		Processed: r.Processed,
		Errors:    make([]BatchItemError, 0, len(r.Errors)),
		CountIDs:  append([]uuid.UUID{}, r.CountIDs...),
	}
	for _, e := range r.Errors {
		if slices.Contains(indexes, e.Index) {
			continue
		}
		out.Failed++
		if e.ConflictData != nil {
			out.Conflicts++
		}
		out.Errors = append(out.Errors, e)
	}
	return out
}

// SortErrors orders item errors by batch index
func (r *BatchResult) SortErrors() {
	slices.SortStableFunc(r.Errors, func(a, b BatchItemError) int {
		return cmp.Compare(a.Index, b.Index)
	})
}

// BatchReceipt is what the server remembers about a batch id. Pending lists
// the entries that failed for infrastructure reasons; a resend of the batch
// evaluates only those again.
type BatchReceipt struct {
	Result  *BatchResult `json:"result"`
	Pending []int        `json:"pending,omitempty"`
}

// Complete reports whether every entry has a final outcome
func (r *BatchReceipt) Complete() bool {
	return len(r.Pending) == 0
}
