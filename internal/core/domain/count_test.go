package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/countsync/internal/core/domain"
)

func intPtr(v int) *int { return &v }

func TestCountSubmission_Validate(t *testing.T) {
	tests := []struct {
		name      string
		sub       *domain.CountSubmission
		wantError bool
		errorMsg  string
	}{
		{
			name: "valid_minimal_submission",
			sub: &domain.CountSubmission{
				ProductID: uuid.New(),
				Quantity:  intPtr(12),
			},
		},
		{
			name: "missing_product_id",
			sub: &domain.CountSubmission{
				Quantity: intPtr(1),
			},
			wantError: true,
			errorMsg:  "product_id is required",
		},
		{
			name: "missing_quantity",
			sub: &domain.CountSubmission{
				ProductID: uuid.New(),
			},
			wantError: true,
			errorMsg:  "quantity is required",
		},
		{
			name: "negative_quantity",
			sub: &domain.CountSubmission{
				ProductID: uuid.New(),
				Quantity:  intPtr(-1),
			},
			wantError: true,
			errorMsg:  "quantity cannot be negative",
		},
		{
			name: "zero_quantity_is_allowed",
			sub: &domain.CountSubmission{
				ProductID: uuid.New(),
				Quantity:  intPtr(0),
			},
		},
		{
			name: "too_many_images",
			sub: &domain.CountSubmission{
				ProductID: uuid.New(),
				Quantity:  intPtr(1),
				Images:    []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"},
			},
			wantError: true,
			errorMsg:  "images cannot contain more than 3 entries",
		},
		{
			name: "too_many_voice_notes",
			sub: &domain.CountSubmission{
				ProductID:  uuid.New(),
				Quantity:   intPtr(1),
				VoiceNotes: []string{"a.m4a", "b.m4a"},
			},
			wantError: true,
			errorMsg:  "voice_notes cannot contain more than 1 entry",
		},
		{
			name: "sync_priority_out_of_range",
			sub: &domain.CountSubmission{
				ProductID:    uuid.New(),
				Quantity:     intPtr(1),
				SyncPriority: 11,
			},
			wantError: true,
			errorMsg:  "sync_priority must be between 1 and 10",
		},
		{
			name: "invalid_latitude",
			sub: &domain.CountSubmission{
				ProductID:      uuid.New(),
				Quantity:       intPtr(1),
				GPSCoordinates: &domain.GPSCoordinates{Latitude: 91, Longitude: 0},
			},
			wantError: true,
			errorMsg:  "gps_coordinates.latitude",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sub.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.True(t, errors.Is(err, domain.ErrValidation))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCountSubmission_Validate_DefaultsPriority(t *testing.T) {
	sub := &domain.CountSubmission{ProductID: uuid.New(), Quantity: intPtr(3)}

	require.NoError(t, sub.Validate())
	assert.Equal(t, 1, sub.SyncPriority)
	assert.True(t, sub.IsVerified())
}

func TestNewInventoryCount(t *testing.T) {
	businessID := uuid.New()
	now := time.Now()
	offline := int64(90_000)

	sub := &domain.CountSubmission{
		ProductID:    uuid.New(),
		Quantity:     intPtr(45),
		Location:     "A-01",
		DeviceInfo:   map[string]any{"model": "TC52", "device_id": "from-submission"},
		SyncPriority: 4,
	}
	meta := &domain.SyncMetadata{
		DeviceID:          "scanner-7",
		BatchID:           "batch-1",
		OfflineDurationMs: &offline,
		NetworkQuality:    domain.NetworkPoor,
	}

	count := domain.NewInventoryCount(sub, domain.CountContext{
		BusinessID: businessID,
		CountedBy:  "user-1",
		Metadata:   meta,
	}, 40, now)

	assert.NotEqual(t, uuid.Nil, count.ID)
	assert.Equal(t, businessID, count.BusinessID)
	assert.Equal(t, 45, count.Quantity)
	assert.Equal(t, 40, count.PreviousQuantity)
	assert.Equal(t, 5, count.Difference)
	assert.True(t, count.Verified)
	assert.Equal(t, "batch-1", count.BatchID)
	assert.Equal(t, domain.NetworkPoor, count.NetworkQuality)
	assert.Equal(t, "from-submission", count.DeviceInfo["device_id"])
	assert.Equal(t, "TC52", count.DeviceInfo["model"])
	assert.Equal(t, offline, count.DeviceInfo["offline_duration_ms"])
}

func TestCountFilter_Normalize(t *testing.T) {
	f := domain.CountFilter{Limit: 500, Offset: -3}
	f.Normalize()
	assert.Equal(t, domain.MaxCountLimit, f.Limit)
	assert.Equal(t, 0, f.Offset)

	f = domain.CountFilter{}
	f.Normalize()
	assert.Equal(t, domain.DefaultCountLimit, f.Limit)
}

func TestBatchRequest_Validate(t *testing.T) {
	valid := domain.SyncMetadata{DeviceID: "d1", BatchID: "b1"}

	tests := []struct {
		name    string
		req     domain.BatchRequest
		wantErr error
	}{
		{
			name:    "empty_batch",
			req:     domain.BatchRequest{SyncMetadata: valid},
			wantErr: domain.ErrEmptyBatch,
		},
		{
			name:    "too_many_counts",
			req:     domain.BatchRequest{Counts: make([]domain.CountSubmission, 51), SyncMetadata: valid},
			wantErr: domain.ErrBatchTooLarge,
		},
		{
			name:    "missing_batch_id",
			req:     domain.BatchRequest{Counts: make([]domain.CountSubmission, 1), SyncMetadata: domain.SyncMetadata{DeviceID: "d1"}},
			wantErr: domain.ErrValidation,
		},
		{
			name: "fifty_counts_is_allowed",
			req:  domain.BatchRequest{Counts: make([]domain.CountSubmission, 50), SyncMetadata: valid},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBatchResult_Counters(t *testing.T) {
	r := domain.NewBatchResult()
	r.Succeeded(uuid.New())
	r.Fail(1, uuid.New(), domain.ErrProductNotFound)
	r.Conflict(2, uuid.New(), domain.ConflictData{Expected: 8, Actual: 10, ProductName: "Bolts"})

	assert.Equal(t, 1, r.Processed)
	assert.Equal(t, 2, r.Failed)
	assert.Equal(t, 1, r.Conflicts)
	assert.Len(t, r.CountIDs, 1)
	require.Len(t, r.Errors, 2)
	assert.Equal(t, "product not found", r.Errors[0].Error)
	assert.Equal(t, 8, r.Errors[1].ConflictData.Expected)
	assert.True(t, r.PartialSuccess())
}

func TestBatchResult_Reopen(t *testing.T) {
	r := domain.NewBatchResult()
	r.Succeeded(uuid.New())
	r.Fail(1, uuid.New(), domain.ErrProductNotFound)
	r.Fail(2, uuid.New(), errors.New("internal error"))
	r.Conflict(3, uuid.New(), domain.ConflictData{Expected: 8, Actual: 10, ProductName: "Bolts"})

	reopened := r.Reopen([]int{2})
	assert.Equal(t, 1, reopened.Processed)
	assert.Equal(t, 2, reopened.Failed)
	assert.Equal(t, 1, reopened.Conflicts)
	assert.Equal(t, r.CountIDs, reopened.CountIDs)

	reopened.Fail(2, uuid.New(), domain.ErrProductNotFound)
	reopened.Conflict(0, uuid.New(), domain.ConflictData{})
	reopened.SortErrors()
	var order []int
	for _, e := range reopened.Errors {
		order = append(order, e.Index)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, order)

	// The original is untouched
	assert.Equal(t, 3, r.Failed)
	assert.Len(t, r.Errors, 3)
}

func TestCountOutcome_Err(t *testing.T) {
	assert.NoError(t, domain.Accepted().Err())

	conflict := domain.Conflicted(domain.ConflictData{Expected: 8, Actual: 10, ProductName: "Bolts"})
	var ce *domain.ConflictError
	require.ErrorAs(t, conflict.Err(), &ce)
	assert.Equal(t, 10, ce.Data.Actual)
	assert.ErrorIs(t, conflict.Err(), domain.ErrConflict)

	assert.ErrorIs(t, domain.Rejected("bad").Err(), domain.ErrValidation)
}
