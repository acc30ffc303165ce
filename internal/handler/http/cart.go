package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/shopper/internal/service"
	"github.com/utafrali/shopper/pkg/httputil"
	"github.com/utafrali/shopper/pkg/middleware"
)

// CartHandler handles the cart and wishlist endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: svc, logger: logger}
}

// UpdateQuantityRequest is the body of a cart quantity change.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0,lte=1000"`
}

// AddToWishlistRequest is the body of a wishlist addition.
type AddToWishlistRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Cart(r.Context(), middleware.EmailFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, items)
}

// AddItem handles POST /api/v1/cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req service.AddToCartInput
	if !decode(w, r, &req) {
		return
	}
	item, err := h.service.AddToCart(r.Context(), middleware.EmailFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, item)
}

// UpdateQuantity handles PATCH /api/v1/cart/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req UpdateQuantityRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.service.UpdateQuantity(r.Context(), middleware.EmailFromContext(r.Context()), id, req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, item)
}

// RemoveItem handles DELETE /api/v1/cart/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := h.service.RemoveFromCart(r.Context(), middleware.EmailFromContext(r.Context()), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetWishlist handles GET /api/v1/wishlist
func (h *CartHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Wishlist(r.Context(), middleware.EmailFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, items)
}

// AddToWishlist handles POST /api/v1/wishlist
func (h *CartHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req AddToWishlistRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.service.AddToWishlist(r.Context(), middleware.EmailFromContext(r.Context()), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, item)
}

// RemoveFromWishlist handles DELETE /api/v1/wishlist/{id}
func (h *CartHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := h.service.RemoveFromWishlist(r.Context(), middleware.EmailFromContext(r.Context()), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
