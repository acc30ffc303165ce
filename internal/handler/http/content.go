package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/shopper/internal/service"
	"github.com/utafrali/shopper/pkg/httputil"
	"github.com/utafrali/shopper/pkg/middleware"
)

// ReviewHandler handles the review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// CreateReview handles POST /api/v1/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req service.CreateReviewInput
	if !decode(w, r, &req) {
		return
	}

	id, _ := middleware.IdentityFromContext(r.Context())
	res, err := h.service.Create(r.Context(), id.Email, id.Name, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, res)
}

// ListReviews handles GET /api/v1/products/{id}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	reviews, err := h.service.ListByProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, reviews)
}

// BlogHandler handles the blog endpoints.
type BlogHandler struct {
	service *service.BlogService
	logger  *slog.Logger
}

// NewBlogHandler creates a new blog HTTP handler.
func NewBlogHandler(svc *service.BlogService, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{service: svc, logger: logger}
}

// ListBlogs handles GET /api/v1/blogs
func (h *BlogHandler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, posts)
}

// GetBlog handles GET /api/v1/blogs/{id}
func (h *BlogHandler) GetBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, b)
}

// CreateBlog handles POST /api/v1/admin/blogs
func (h *BlogHandler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBlogInput
	if !decode(w, r, &req) {
		return
	}
	b, err := h.service.Create(r.Context(), middleware.EmailFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, b)
}

// DeleteBlog handles DELETE /api/v1/admin/blogs/{id}
func (h *BlogHandler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminHandler handles user administration.
type AdminHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(svc *service.UserService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{service: svc, logger: logger}
}

// RoleRequest is the body of a role change.
type RoleRequest struct {
	Role string `json:"role" validate:"required,oneof=customer seller moderator admin"`
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, users)
}

// UpdateRole handles PATCH /api/v1/admin/users/{email}/role
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	var req RoleRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.service.UpdateRole(r.Context(), middleware.EmailFromContext(r.Context()), email, req.Role)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, u)
}
