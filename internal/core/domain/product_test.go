package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/countsync/internal/core/domain"
)

func TestProduct_Validate(t *testing.T) {
	tests := []struct {
		name      string
		product   *domain.Product
		wantError bool
		errorMsg  string
	}{
		{
			name: "valid_product",
			product: &domain.Product{
				BusinessID:      uuid.New(),
				Name:            "Hex Bolt M8",
				CurrentQuantity: 10,
				Cost:            decimal.NewFromFloat(0.12),
				Price:           decimal.NewFromFloat(0.40),
			},
		},
		{
			name:      "missing_business",
			product:   &domain.Product{Name: "Hex Bolt"},
			wantError: true,
			errorMsg:  "business_id is required",
		},
		{
			name:      "blank_name",
			product:   &domain.Product{BusinessID: uuid.New(), Name: "  "},
			wantError: true,
			errorMsg:  "name is required",
		},
		{
			name:      "negative_quantity",
			product:   &domain.Product{BusinessID: uuid.New(), Name: "Hex Bolt", CurrentQuantity: -1},
			wantError: true,
			errorMsg:  "current_quantity cannot be negative",
		},
		{
			name: "negative_price",
			product: &domain.Product{
				BusinessID: uuid.New(),
				Name:       "Hex Bolt",
				Price:      decimal.NewFromInt(-1),
			},
			wantError: true,
			errorMsg:  "price cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.product.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.CategoryGeneral, tt.product.Category)
		})
	}
}

func TestProduct_PrepareForStorage(t *testing.T) {
	p := &domain.Product{Name: "Washer"}
	p.PrepareForStorage()

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.False(t, p.UpdatedAt.IsZero())

	summary := p.Summary()
	assert.Equal(t, p.ID, summary.ID)
	assert.Equal(t, "Washer", summary.Name)
}
