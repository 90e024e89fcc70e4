// internal/handlers/products_handler_test.go
package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/ports"
	"github.com/ammerola/countsync/test/helpers"
)

func TestProductHandler_CreateProduct(t *testing.T) {
	businessID := uuid.New()

	t.Run("creates_product", func(t *testing.T) {
		ts := newTestServer(t)
		ts.products.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p *domain.Product) error {
				assert.Equal(t, businessID, p.BusinessID)
				assert.Equal(t, "Widget A", p.Name)
				assert.Equal(t, 10, p.CurrentQuantity)
				assert.Equal(t, "2.50", p.Cost.StringFixed(2))
				p.ID = uuid.New()
				return nil
			})

		w := ts.do(http.MethodPost, "/api/v1/products", businessID,
			`{"name":"Widget A","current_quantity":10,"cost":"2.50","price":"4.00"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "Widget A", decodeBody[domain.Product](t, w).Name)
	})

	t.Run("replayed_create_returns_existing", func(t *testing.T) {
		ts := newTestServer(t)
		existing := helpers.CreateTestProduct(func(p *domain.Product) { p.BusinessID = businessID })
		ts.products.EXPECT().Get(gomock.Any(), businessID, existing.ID).Return(existing, nil)

		w := ts.do(http.MethodPost, "/api/v1/products", businessID,
			map[string]any{"id": existing.ID, "name": "Widget A"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, existing.ID, decodeBody[domain.Product](t, w).ID)
	})

	t.Run("device_assigned_id_is_kept", func(t *testing.T) {
		ts := newTestServer(t)
		id := uuid.New()
		ts.products.EXPECT().Get(gomock.Any(), businessID, id).Return(nil, domain.ErrProductNotFound)
		ts.products.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p *domain.Product) error {
				assert.Equal(t, id, p.ID)
				return nil
			})

		w := ts.do(http.MethodPost, "/api/v1/products", businessID, map[string]any{"id": id, "name": "Widget B"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("validation_error", func(t *testing.T) {
		ts := newTestServer(t)
		ts.products.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domain.NewValidationError("name", "is required"))

		w := ts.do(http.MethodPost, "/api/v1/products", businessID, map[string]any{"name": ""})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "name is required", decodeBody[map[string]string](t, w)["error"])
	})
}

func TestProductHandler_GetProduct(t *testing.T) {
	businessID := uuid.New()
	product := helpers.CreateTestProduct(func(p *domain.Product) { p.BusinessID = businessID })

	tests := []struct {
		name           string
		id             string
		setupMocks     func(*testServer)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "found",
			id:   product.ID.String(),
			setupMocks: func(ts *testServer) {
				ts.products.EXPECT().Get(gomock.Any(), businessID, product.ID).Return(product, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_uuid_format",
			id:             "not-a-uuid",
			setupMocks:     func(ts *testServer) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid product ID format",
		},
		{
			name: "not_found",
			id:   uuid.NewString(),
			setupMocks: func(ts *testServer) {
				ts.products.EXPECT().Get(gomock.Any(), businessID, gomock.Any()).Return(nil, domain.ErrProductNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "Product not found",
		},
		{
			name: "service_error",
			id:   product.ID.String(),
			setupMocks: func(ts *testServer) {
				ts.products.EXPECT().Get(gomock.Any(), businessID, product.ID).Return(nil, errors.New("database connection failed"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Failed to retrieve product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			tt.setupMocks(ts)

			w := ts.do(http.MethodGet, "/api/v1/products/"+tt.id, businessID, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeBody[map[string]string](t, w)["error"])
			}
		})
	}
}

func TestProductHandler_ListProducts(t *testing.T) {
	businessID := uuid.New()
	ts := newTestServer(t)
	ts.products.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p ports.ProductListParams) (*ports.ProductListResult, error) {
			assert.Equal(t, businessID, p.BusinessID)
			assert.Equal(t, "widget", p.Search)
			assert.Equal(t, "A-1", p.Location)
			assert.Equal(t, 10, p.Limit)
			return &ports.ProductListResult{Products: []*domain.Product{}, Limit: 10}, nil
		})

	w := ts.do(http.MethodGet, "/api/v1/products?search=widget&location=A-1&limit=10", businessID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProductHandler_UpdateProduct(t *testing.T) {
	businessID := uuid.New()
	id := uuid.New()

	t.Run("updates", func(t *testing.T) {
		ts := newTestServer(t)
		ts.products.EXPECT().
			Update(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p *domain.Product) error {
				assert.Equal(t, id, p.ID)
				assert.Equal(t, businessID, p.BusinessID)
				return nil
			})
		ts.products.EXPECT().Get(gomock.Any(), businessID, id).
			Return(&domain.Product{ID: id, BusinessID: businessID, Name: "Widget B"}, nil)

		w := ts.do(http.MethodPut, "/api/v1/products/"+id.String(), businessID, map[string]any{"name": "Widget B"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Widget B", decodeBody[domain.Product](t, w).Name)
	})

	t.Run("missing_product", func(t *testing.T) {
		ts := newTestServer(t)
		ts.products.EXPECT().Update(gomock.Any(), gomock.Any()).Return(domain.ErrProductNotFound)

		w := ts.do(http.MethodPut, "/api/v1/products/"+id.String(), businessID, map[string]any{"name": "Widget B"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProductHandler_DeleteProduct(t *testing.T) {
	businessID := uuid.New()
	id := uuid.New()

	ts := newTestServer(t)
	ts.products.EXPECT().Delete(gomock.Any(), businessID, id).Return(nil)
	ts.products.EXPECT().Delete(gomock.Any(), businessID, id).Return(domain.ErrProductNotFound)

	w := ts.do(http.MethodDelete, "/api/v1/products/"+id.String(), businessID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodDelete, "/api/v1/products/"+id.String(), businessID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
