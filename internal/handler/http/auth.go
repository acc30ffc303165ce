package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/shopper/internal/auth"
	"github.com/utafrali/shopper/internal/service"
	"github.com/utafrali/shopper/pkg/httputil"
	"github.com/utafrali/shopper/pkg/middleware"
)

// AuthHandler issues tokens and serves the caller's user record.
type AuthHandler struct {
	issuer *auth.TokenIssuer
	users  *service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(issuer *auth.TokenIssuer, users *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{issuer: issuer, users: users, logger: logger}
}

// IssueTokenRequest is the identity the client signed in with.
type IssueTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=200"`
}

// TokenResponse carries a signed token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken handles POST /api/v1/jwt
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req IssueTokenRequest
	if !decode(w, r, &req) {
		return
	}

	token, exp, err := h.issuer.Issue(req.Email, req.Name)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: exp})
}

// Register handles POST /api/v1/users
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())

	u, created, err := h.users.Register(r.Context(), id.Email, id.Name)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteData(w, status, u)
}

// Me handles GET /api/v1/users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), middleware.EmailFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, u)
}
