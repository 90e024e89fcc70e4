// internal/core/domain/product.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductCategory groups products for reporting
type ProductCategory string

// Category constants
const (
	CategoryGeneral     ProductCategory = "general"
	CategoryRawMaterial ProductCategory = "raw_material"
	CategoryFinished    ProductCategory = "finished_goods"
	CategoryPackaging   ProductCategory = "packaging"
	CategorySpareParts  ProductCategory = "spare_parts"
	CategoryConsumables ProductCategory = "consumables"
)

// Product is the authoritative stock record owned by the product store
type Product struct {
	ID              uuid.UUID       `json:"id"`
	BusinessID      uuid.UUID       `json:"business_id"`
	Name            string          `json:"name"`
	SKU             string          `json:"sku,omitempty"`
	Barcode         string          `json:"barcode,omitempty"`
	Category        ProductCategory `json:"category"`
	CurrentQuantity int             `json:"current_quantity"`
	Cost            decimal.Decimal `json:"cost"`
	Price           decimal.Decimal `json:"price"`
	Location        string          `json:"location,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       *time.Time      `json:"deleted_at,omitempty"`
}

// ProductSummary is the product projection joined onto count listings
type ProductSummary struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	SKU      string          `json:"sku,omitempty"`
	Barcode  string          `json:"barcode,omitempty"`
	Category ProductCategory `json:"category"`
}

// Validate performs domain validation on the product
func (p *Product) Validate() error {
	if p.BusinessID == uuid.Nil {
		return NewValidationError("business_id", "is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if p.CurrentQuantity < 0 {
		return NewValidationError("current_quantity", "cannot be negative")
	}
	if p.Cost.IsNegative() {
		return NewValidationError("cost", "cannot be negative")
	}
	if p.Price.IsNegative() {
		return NewValidationError("price", "cannot be negative")
	}
	if p.Category == "" {
		p.Category = CategoryGeneral
	}
	return nil
}

// PrepareForStorage assigns identity and timestamps
func (p *Product) PrepareForStorage() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// Summary returns the listing projection of the product
func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:       p.ID,
		Name:     p.Name,
		SKU:      p.SKU,
		Barcode:  p.Barcode,
		Category: p.Category,
	}
}
