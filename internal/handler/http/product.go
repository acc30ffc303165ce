package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/service"
	"github.com/utafrali/shopper/pkg/httputil"
	"github.com/utafrali/shopper/pkg/middleware"
	"github.com/utafrali/shopper/pkg/pagination"
)

// ProductHandler handles the catalog, seller product and moderation endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger}
}

// ProductListResponse is the catalog listing.
type ProductListResponse struct {
	Products []domain.Product `json:"products"`
	Count    int              `json:"count"`
	Page     int              `json:"page,omitempty"`
	PerPage  int              `json:"per_page,omitempty"`
}

// StatusRequest moves a product or order to a new status.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseProductFilter(w, r)
	if !ok {
		return
	}

	products, count, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, ProductListResponse{
		Products: products,
		Count:    count,
		Page:     filter.Page,
		PerPage:  filter.PerPage,
	})
}

// parseProductFilter reads the catalog query string. Absent values keep the
// defaults; malformed numbers answer 400.
func parseProductFilter(w http.ResponseWriter, r *http.Request) (domain.ProductFilter, bool) {
	q := r.URL.Query()
	filter := domain.DefaultProductFilter()

	if v := q.Get("category"); v != "" {
		filter.Category = v
	}
	filter.Search = q.Get("search")
	if v := q.Get("sort"); v != "" {
		filter.Sort = v
	}

	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"min_price", &filter.MinPrice},
		{"max_price", &filter.MaxPrice},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httputil.WriteParamError(w, p.name+" must be a valid number")
			return filter, false
		}
		*p.dst = f
	}

	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err != nil || n < 1 {
			httputil.WriteParamError(w, "page must be a valid positive integer")
			return filter, false
		}
	}
	if v := q.Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err != nil || n < 1 || n > pagination.MaxPerPage {
			httputil.WriteParamError(w, "per_page must be a valid integer between 1 and 100")
			return filter, false
		}
	}
	if params, paged := pagination.OptionalFromRequest(r); paged {
		filter.Page, filter.PerPage = params.Page, params.PerPage
		if filter.Page > domain.MaxPage(filter.PerPage) {
			httputil.WriteParamError(w, "page is out of range")
			return filter, false
		}
	}
	return filter, true
}

// LatestProducts handles GET /api/v1/products/latest
func (h *ProductHandler) LatestProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Latest(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, products)
}

// TopSelling handles GET /api/v1/products/top-selling
func (h *ProductHandler) TopSelling(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.TopSelling(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, products)
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// ListOwn handles GET /api/v1/seller/products
func (h *ProductHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListByOwner(r.Context(), middleware.EmailFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, products)
}

// CreateProduct handles POST /api/v1/seller/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req service.ProductInput
	if !decode(w, r, &req) {
		return
	}

	id, _ := middleware.IdentityFromContext(r.Context())
	p, err := h.service.Create(r.Context(), id.Email, id.Name, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, p)
}

// UpdateProduct handles PUT /api/v1/seller/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req service.ProductInput
	if !decode(w, r, &req) {
		return
	}

	p, err := h.service.Update(r.Context(), middleware.EmailFromContext(r.Context()), id, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// DeleteProduct handles DELETE /api/v1/seller/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), middleware.EmailFromContext(r.Context()), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ModerationQueue handles GET /api/v1/moderator/products
func (h *ProductHandler) ModerationQueue(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ModerationQueue(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, products)
}

// Moderate handles PATCH /api/v1/moderator/products/{id}/status
func (h *ProductHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req StatusRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.service.Moderate(r.Context(), middleware.EmailFromContext(r.Context()), id, req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}
