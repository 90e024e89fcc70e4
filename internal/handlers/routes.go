// internal/handlers/routes.go
package handlers

import (
	"net/http"

	"github.com/ammerola/countsync/internal/handlers/middleware"
)

// Router groups the handlers served by the API
type Router struct {
	Health   *HealthHandler
	Counts   *CountHandler
	Reports  *ReportHandler
	Products *ProductHandler
	Evidence *EvidenceHandler
}

// Register mounts every route on mux. Business scoped routes are wrapped
// in middleware.BusinessScope.
func (rt *Router) Register(mux *http.ServeMux) {
	if rt.Health != nil {
		mux.HandleFunc("GET /health", rt.Health.Health)
		mux.HandleFunc("GET /ready", rt.Health.Readiness)
	}

	scoped := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.BusinessScope(h))
	}

	scoped("POST /api/v1/inventory/counts", rt.Counts.SubmitCount)
	scoped("POST /api/v1/inventory/counts/batch", rt.Counts.SubmitBatch)
	scoped("GET /api/v1/inventory/counts", rt.Counts.ListCounts)

	if rt.Reports != nil {
		scoped("GET /api/v1/inventory/counts/export", rt.Reports.ExportCounts)
		scoped("POST /api/v1/inventory/reports/variance", rt.Reports.RequestVarianceReport)
		scoped("GET /api/v1/inventory/stats", rt.Reports.GetStats)
	}

	if rt.Evidence != nil {
		scoped("POST /api/v1/inventory/counts/evidence", rt.Evidence.UploadEvidence)
		scoped("GET /api/v1/inventory/counts/evidence", rt.Evidence.GetEvidenceURL)
	}

	scoped("GET /api/v1/products", rt.Products.ListProducts)
	scoped("POST /api/v1/products", rt.Products.CreateProduct)
	scoped("GET /api/v1/products/{id}", rt.Products.GetProduct)
	scoped("PUT /api/v1/products/{id}", rt.Products.UpdateProduct)
	scoped("DELETE /api/v1/products/{id}", rt.Products.DeleteProduct)
}
