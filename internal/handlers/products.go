// internal/handlers/products.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/core/ports"
)

// ProductHandler handles product catalogue requests
type ProductHandler struct {
	responder
	service ports.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(service ports.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		responder: responder{logger: logger.With(slog.String("handler", "products"))},
		service:   service,
	}
}

// ProductRequest is the body of product create and update requests.
// Devices creating products offline send the id they assigned.
type ProductRequest struct {
	ID              *uuid.UUID      `json:"id,omitempty"`
	Name            string          `json:"name"`
	SKU             string          `json:"sku,omitempty"`
	Barcode         string          `json:"barcode,omitempty"`
	Category        string          `json:"category,omitempty"`
	CurrentQuantity int             `json:"current_quantity"`
	Cost            decimal.Decimal `json:"cost"`
	Price           decimal.Decimal `json:"price"`
	Location        string          `json:"location,omitempty"`
}

// ToDomain converts the request to a product of the business
func (r *ProductRequest) ToDomain(businessID uuid.UUID) *domain.Product {
	p := &domain.Product{
		BusinessID:      businessID,
		Name:            r.Name,
		SKU:             r.SKU,
		Barcode:         r.Barcode,
		Category:        domain.ProductCategory(r.Category),
		CurrentQuantity: r.CurrentQuantity,
		Cost:            r.Cost,
		Price:           r.Price,
		Location:        r.Location,
	}
	if r.ID != nil {
		p.ID = *r.ID
	}
	return p
}

// CreateProduct handles POST /api/v1/products. Re-sending a create with an
// id that already exists returns the stored product with 200.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	businessID, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ID != nil {
		existing, err := h.service.Get(ctx, businessID, *req.ID)
		switch {
		case err == nil:
			h.respondJSON(w, http.StatusOK, existing)
			return
		case !errors.Is(err, domain.ErrProductNotFound):
			h.respondServiceError(w, r, err, "Failed to create product")
			return
		}
	}

	product := req.ToDomain(businessID)
	if err := h.service.Create(ctx, product); err != nil {
		h.respondServiceError(w, r, err, "Failed to create product")
		return
	}

	h.respondJSON(w, http.StatusCreated, product)
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	businessID, ok := h.scope(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.service.Get(r.Context(), businessID, id)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve product")
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	businessID, ok := h.scope(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	result, err := h.service.List(r.Context(), ports.ProductListParams{
		BusinessID: businessID,
		Search:     q.Get("search"),
		Category:   q.Get("category"),
		Location:   q.Get("location"),
		Barcode:    q.Get("barcode"),
		Limit:      parseIntParam(r, "limit"),
		Offset:     parseIntParam(r, "offset"),
	})
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to list products")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// UpdateProduct handles PUT /api/v1/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	businessID, ok := h.scope(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product := req.ToDomain(businessID)
	product.ID = id

	if err := h.service.Update(ctx, product); err != nil {
		h.respondServiceError(w, r, err, "Failed to update product")
		return
	}

	updated, err := h.service.Get(ctx, businessID, id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to retrieve updated product",
			slog.String("product_id", id.String()),
			slog.String("error", err.Error()))
		h.respondJSON(w, http.StatusOK, product)
		return
	}

	h.respondJSON(w, http.StatusOK, updated)
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	businessID, ok := h.scope(w, r)
	if !ok {
		return
	}

	idStr := r.PathValue("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	if err := h.service.Delete(ctx, businessID, id); err != nil {
		h.respondServiceError(w, r, err, "Failed to delete product")
		return
	}

	h.logger.InfoContext(ctx, "product deleted", slog.String("product_id", idStr))

	h.respondJSON(w, http.StatusOK, map[string]string{
		"message": "Product deleted successfully",
		"id":      idStr,
	})
}
