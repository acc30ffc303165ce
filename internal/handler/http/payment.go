package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/shopper/internal/service"
	"github.com/utafrali/shopper/pkg/httpclient"
	"github.com/utafrali/shopper/pkg/httputil"
	"github.com/utafrali/shopper/pkg/middleware"
)

// maxIdempotencyKeyLen bounds the Idempotency-Key header.
const maxIdempotencyKeyLen = 255

// PaymentHandler handles the payment endpoints.
type PaymentHandler struct {
	service *service.PaymentService
	logger  *slog.Logger
}

// NewPaymentHandler creates a new payment HTTP handler.
func NewPaymentHandler(svc *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{service: svc, logger: logger}
}

// CreateIntent handles POST /api/v1/payments/intent
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req service.CreateIntentInput
	if !decode(w, r, &req) {
		return
	}
	intent, err := h.service.CreateIntent(r.Context(), req.Price)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, intent)
}

// Submit handles POST /api/v1/payments. A replayed Idempotency-Key answers
// 200 with the original payment.
func (h *PaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get(httpclient.IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLen {
		httputil.WriteParamError(w, "Idempotency-Key is too long")
		return
	}

	var req service.SubmitPaymentInput
	if !decode(w, r, &req) {
		return
	}

	p, replayed, err := h.service.Submit(r.Context(), middleware.EmailFromContext(r.Context()), key, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	httputil.WriteData(w, status, p)
}

// History handles GET /api/v1/payments
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.History(r.Context(), middleware.EmailFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, payments)
}
