// Package offline implements the device side of count synchronization: a
// durable operation queue, a connectivity monitor and the sync executor that
// replays queued operations against the API.
package offline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/countsync/internal/core/domain"
)

// Kind identifies what a queued operation does on the server
type Kind string

const (
	KindCount         Kind = "count"
	KindProductCreate Kind = "product_create"
	KindProductUpdate Kind = "product_update"
	KindProductDelete Kind = "product_delete"
)

// DefaultMaxRetries is the retry ceiling given to operations that don't set one
const DefaultMaxRetries = 3

// ErrUnknownKind is returned for operations with an unsupported kind
var ErrUnknownKind = errors.New("unknown operation kind")

// Kinds lists every supported kind in display order
func Kinds() []Kind {
	return []Kind{KindCount, KindProductCreate, KindProductUpdate, KindProductDelete}
}

// ParseKind accepts both the stored form and the dashed CLI form
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Operation is a pending mutation that the server has not yet confirmed
type Operation struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	RetryCount int             `json:"retry_count"`
	MaxRetries int             `json:"max_retries"`
	LastError  string          `json:"last_error,omitempty"`
}

// Clone returns a deep copy so callers never share payload bytes with the store
func (o Operation) Clone() Operation {
	if o.Payload != nil {
		o.Payload = append(json.RawMessage(nil), o.Payload...)
	}
	return o
}

// ProductPayload is the body of product_create and product_update operations.
// ID is required for updates and optional for creates; a device that sets it
// can replay a create safely.
type ProductPayload struct {
	ID              *uuid.UUID       `json:"id,omitempty"`
	Name            string           `json:"name"`
	SKU             string           `json:"sku,omitempty"`
	Barcode         string           `json:"barcode,omitempty"`
	Category        string           `json:"category,omitempty"`
	CurrentQuantity int              `json:"current_quantity"`
	Cost            *decimal.Decimal `json:"cost,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Location        string           `json:"location,omitempty"`
}

// ProductRef is the body of product_delete operations
type ProductRef struct {
	ID uuid.UUID `json:"id"`
}

// NewCountOperation validates sub and wraps it in an operation
func NewCountOperation(sub *domain.CountSubmission) (Operation, error) {
	if err := sub.Validate(); err != nil {
		return Operation{}, err
	}
	return newOperation(KindCount, sub)
}

// NewProductOperation builds a product_create or product_update operation
func NewProductOperation(kind Kind, p ProductPayload) (Operation, error) {
	if kind != KindProductCreate && kind != KindProductUpdate {
		return Operation{}, fmt.Errorf("%w: %q is not a product write", ErrUnknownKind, kind)
	}
	if kind == KindProductCreate && p.ID == nil {
		id := uuid.New()
		p.ID = &id
	}
	op, err := newOperation(kind, p)
	if err != nil {
		return Operation{}, err
	}
	return op, op.Validate()
}

// NewProductDeleteOperation builds a product_delete operation
func NewProductDeleteOperation(id uuid.UUID) (Operation, error) {
	op, err := newOperation(KindProductDelete, ProductRef{ID: id})
	if err != nil {
		return Operation{}, err
	}
	return op, op.Validate()
}

func newOperation(kind Kind, payload any) (Operation, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Operation{}, fmt.Errorf("failed to encode %s payload: %w", kind, err)
	}
	return Operation{Kind: kind, Payload: b}, nil
}

// Validate checks the payload for its kind. Operations that fail here are
// never queued.
func (o Operation) Validate() error {
	switch o.Kind {
	case KindCount:
		var sub domain.CountSubmission
		if err := decodeStrict(o.Payload, &sub); err != nil {
			return err
		}
		return sub.Validate()

	case KindProductCreate, KindProductUpdate:
		var p ProductPayload
		if err := decodeStrict(o.Payload, &p); err != nil {
			return err
		}
		if o.Kind == KindProductUpdate && (p.ID == nil || *p.ID == uuid.Nil) {
			return domain.NewValidationError("id", "is required")
		}
		if strings.TrimSpace(p.Name) == "" {
			return domain.NewValidationError("name", "is required")
		}
		if p.CurrentQuantity < 0 {
			return domain.NewValidationError("current_quantity", "cannot be negative")
		}
		return nil

	case KindProductDelete:
		var ref ProductRef
		if err := decodeStrict(o.Payload, &ref); err != nil {
			return err
		}
		if ref.ID == uuid.Nil {
			return domain.NewValidationError("id", "is required")
		}
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnknownKind, o.Kind)
}

// ProductID returns the product the operation targets, if any
func (o Operation) ProductID() uuid.UUID {
	var target struct {
		ID        *uuid.UUID `json:"id"`
		ProductID uuid.UUID  `json:"product_id"`
	}
	if err := json.Unmarshal(o.Payload, &target); err != nil {
		return uuid.Nil
	}
	if o.Kind == KindCount {
		return target.ProductID
	}
	if target.ID != nil {
		return *target.ID
	}
	return uuid.Nil
}

func decodeStrict(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return domain.NewValidationError("payload", "is required")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return domain.NewValidationError("payload", "is not valid JSON: "+err.Error())
	}
	return nil
}
