package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/shopper/internal/repository"
	"github.com/utafrali/shopper/internal/service"
	"github.com/utafrali/shopper/pkg/httputil"
	"github.com/utafrali/shopper/pkg/middleware"
)

// SellerHandler handles the seller order and statistics endpoints.
type SellerHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewSellerHandler creates a new seller HTTP handler.
func NewSellerHandler(svc *service.OrderService, logger *slog.Logger) *SellerHandler {
	return &SellerHandler{service: svc, logger: logger}
}

// Orders handles GET /api/v1/seller/orders?state=new|history
func (h *SellerHandler) Orders(w http.ResponseWriter, r *http.Request) {
	state, ok := repository.ParseOrderState(r.URL.Query().Get("state"))
	if !ok {
		httputil.WriteParamError(w, "state must be new or history")
		return
	}

	orders, err := h.service.SellerOrders(r.Context(), middleware.EmailFromContext(r.Context()), state)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, orders)
}

// UpdateOrderStatus handles PATCH /api/v1/seller/orders/{id}/status
func (h *SellerHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req StatusRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.service.UpdateStatus(r.Context(), middleware.EmailFromContext(r.Context()), id, req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// Activity handles GET /api/v1/seller/stats/activity
func (h *SellerHandler) Activity(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Activity(r.Context(), middleware.EmailFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, a)
}

// Monthly handles GET /api/v1/seller/stats/monthly?basis=line|order
func (h *SellerHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Monthly(r.Context(), middleware.EmailFromContext(r.Context()), r.URL.Query().Get("basis"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stats)
}
