// internal/core/domain/count.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Evidence limits per count
const (
	MaxImagesPerCount     = 3
	MaxVoiceNotesPerCount = 1
	MinSyncPriority       = 1
	MaxSyncPriority       = 10
)

// NetworkQuality as reported by the counting device
type NetworkQuality string

const (
	NetworkOffline NetworkQuality = "offline"
	NetworkPoor    NetworkQuality = "poor"
	NetworkFair    NetworkQuality = "fair"
	NetworkGood    NetworkQuality = "good"
	NetworkUnknown NetworkQuality = "unknown"
)

// GPSCoordinates where a count was taken
type GPSCoordinates struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// InventoryCount is a server-recorded physical count of a product
type InventoryCount struct {
	ID               uuid.UUID       `json:"id"`
	BusinessID       uuid.UUID       `json:"business_id"`
	ProductID        uuid.UUID       `json:"product_id"`
	Quantity         int             `json:"quantity"`
	PreviousQuantity int             `json:"previous_quantity"`
	Difference       int             `json:"difference"`
	Location         string          `json:"location,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CountedBy        string          `json:"counted_by"`
	CountedAt        time.Time       `json:"counted_at"`
	SessionID        *uuid.UUID      `json:"session_id,omitempty"`
	Verified         bool            `json:"verified"`
	DeviceInfo       map[string]any  `json:"device_info,omitempty"`
	GPSCoordinates   *GPSCoordinates `json:"gps_coordinates,omitempty"`
	Images           []string        `json:"images,omitempty"`
	VoiceNotes       []string        `json:"voice_notes,omitempty"`
	OfflineTimestamp *time.Time      `json:"offline_timestamp,omitempty"`
	NetworkQuality   NetworkQuality  `json:"network_quality,omitempty"`
	SyncPriority     int             `json:"sync_priority"`
	BatchID          string          `json:"batch_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	Product          *ProductSummary `json:"product,omitempty"`
}

// CountSubmission is a count as submitted by a device, before the server
// has resolved the authoritative previous quantity
type CountSubmission struct {
	ProductID                uuid.UUID       `json:"product_id"`
	Quantity                 *int            `json:"quantity"`
	Location                 string          `json:"location,omitempty"`
	Notes                    string          `json:"notes,omitempty"`
	SessionID                *uuid.UUID      `json:"session_id,omitempty"`
	DeviceInfo               map[string]any  `json:"device_info,omitempty"`
	GPSCoordinates           *GPSCoordinates `json:"gps_coordinates,omitempty"`
	Images                   []string        `json:"images,omitempty"`
	VoiceNotes               []string        `json:"voice_notes,omitempty"`
	OfflineTimestamp         *time.Time      `json:"offline_timestamp,omitempty"`
	SyncPriority             int             `json:"sync_priority,omitempty"`
	Verified                 *bool           `json:"verified,omitempty"`
	ExpectedPreviousQuantity *int            `json:"expected_previous_quantity,omitempty"`
}

// Validate checks required fields and evidence limits, applying defaults
func (s *CountSubmission) Validate() error {
	if s.ProductID == uuid.Nil {
		return NewValidationError("product_id", "is required")
	}
	if s.Quantity == nil {
		return NewValidationError("quantity", "is required")
	}
	if *s.Quantity < 0 {
		return NewValidationError("quantity", "cannot be negative")
	}
	if len(s.Images) > MaxImagesPerCount {
		return NewValidationError("images", "cannot contain more than 3 entries")
	}
	if len(s.VoiceNotes) > MaxVoiceNotesPerCount {
		return NewValidationError("voice_notes", "cannot contain more than 1 entry")
	}
	if s.SyncPriority == 0 {
		s.SyncPriority = MinSyncPriority
	}
	if s.SyncPriority < MinSyncPriority || s.SyncPriority > MaxSyncPriority {
		return NewValidationError("sync_priority", "must be between 1 and 10")
	}
	if s.ExpectedPreviousQuantity != nil && *s.ExpectedPreviousQuantity < 0 {
		return NewValidationError("expected_previous_quantity", "cannot be negative")
	}
	if gps := s.GPSCoordinates; gps != nil {
		if gps.Latitude < -90 || gps.Latitude > 90 {
			return NewValidationError("gps_coordinates.latitude", "must be between -90 and 90")
		}
		if gps.Longitude < -180 || gps.Longitude > 180 {
			return NewValidationError("gps_coordinates.longitude", "must be between -180 and 180")
		}
	}
	return nil
}

// IsVerified reports whether the count should be applied to the product quantity
func (s *CountSubmission) IsVerified() bool {
	return s.Verified == nil || *s.Verified
}

// CountContext carries request-scoped attribution for recorded counts
type CountContext struct {
	BusinessID uuid.UUID
	CountedBy  string
	Metadata   *SyncMetadata
}

// CountGuard inspects the product row locked for a count and returns an
// error to abort recording
type CountGuard func(locked *Product) error

// NewInventoryCount builds the record for an accepted submission. The previous
// quantity is always the authoritative one read by the server.
func NewInventoryCount(sub *CountSubmission, cc CountContext, previous int, now time.Time) *InventoryCount {
	count := &InventoryCount{
		ID:               uuid.New(),
		BusinessID:       cc.BusinessID,
		ProductID:        sub.ProductID,
		Quantity:         *sub.Quantity,
		PreviousQuantity: previous,
		Difference:       *sub.Quantity - previous,
		Location:         sub.Location,
		Notes:            sub.Notes,
		CountedBy:        cc.CountedBy,
		CountedAt:        now,
		SessionID:        sub.SessionID,
		Verified:         sub.IsVerified(),
		DeviceInfo:       mergeDeviceInfo(sub.DeviceInfo, cc.Metadata),
		GPSCoordinates:   sub.GPSCoordinates,
		Images:           sub.Images,
		VoiceNotes:       sub.VoiceNotes,
		OfflineTimestamp: sub.OfflineTimestamp,
		NetworkQuality:   NetworkUnknown,
		SyncPriority:     sub.SyncPriority,
		CreatedAt:        now,
	}

	if count.SyncPriority == 0 {
		count.SyncPriority = MinSyncPriority
	}
	if cc.Metadata != nil {
		count.BatchID = cc.Metadata.BatchID
		if cc.Metadata.NetworkQuality != "" {
			count.NetworkQuality = cc.Metadata.NetworkQuality
		}
	}

	return count
}

// Rebase sets the previous quantity to the one read under lock
func (c *InventoryCount) Rebase(previous int) {
	c.PreviousQuantity = previous
	c.Difference = c.Quantity - previous
}

// mergeDeviceInfo folds batch sync metadata into the device info. Submission
// fields win over metadata.
func mergeDeviceInfo(info map[string]any, meta *SyncMetadata) map[string]any {
	if meta == nil {
		return info
	}

	merged := make(map[string]any, len(info)+3)
	if meta.DeviceID != "" {
		merged["device_id"] = meta.DeviceID
	}
	if meta.OfflineDurationMs != nil {
		merged["offline_duration_ms"] = *meta.OfflineDurationMs
	}
	if meta.BatchID != "" {
		merged["batch_id"] = meta.BatchID
	}
	for k, v := range info {
		merged[k] = v
	}
	return merged
}

// CountResult is the outcome of recording a single accepted count
type CountResult struct {
	Count            *InventoryCount `json:"data"`
	PreviousQuantity int             `json:"previous_quantity"`
	QuantityChange   int             `json:"quantity_change"`
}

// CountFilter narrows count listings
type CountFilter struct {
	BusinessID uuid.UUID
	ProductID  *uuid.UUID
	SessionID  *uuid.UUID
	Limit      int
	Offset     int
}

// Count listing bounds
const (
	DefaultCountLimit = 50
	MaxCountLimit     = 100
)

// Normalize clamps the limit and offset into their allowed ranges
func (f *CountFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultCountLimit
	}
	if f.Limit > MaxCountLimit {
		f.Limit = MaxCountLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// CountRangeFilter selects counts for exports and reports. Unlike
// CountFilter it is bounded by MaxRows rather than paginated.
type CountRangeFilter struct {
	BusinessID   uuid.UUID
	ProductID    *uuid.UUID
	SessionID    *uuid.UUID
	From         *time.Time
	To           *time.Time
	VarianceOnly bool
	MaxRows      int
}

// DefaultExportRows caps exports when no limit is given
const DefaultExportRows = 10000

// Normalize applies the row cap default
func (f *CountRangeFilter) Normalize() {
	if f.MaxRows <= 0 {
		f.MaxRows = DefaultExportRows
	}
}
