package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/utafrali/shopper/pkg/httputil"
)

type contextKeyType string

const identityKey contextKeyType = "identity"

// Identity is the caller identity decoded from a bearer token. It carries no
// role: roles are always read from storage by the authorizer.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// TokenValidator validates a raw bearer token and returns the embedded identity.
type TokenValidator func(token string) (*Identity, error)

// Auth rejects requests without a valid bearer token and stores the decoded
// identity in the request context. All failures answer 403 UNAUTHORIZED.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, r, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				writeAuthError(w, r, "invalid authorization header format")
				return
			}

			identity, err := validate(strings.TrimSpace(parts[1]))
			if err != nil || identity == nil || identity.Email == "" {
				writeAuthError(w, r, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *identity)))
		})
	}
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity stored by Auth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// EmailFromContext returns the authenticated email, or "".
func EmailFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.Email
}

func writeAuthError(w http.ResponseWriter, r *http.Request, message string) {
	httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: message},
	})
}
