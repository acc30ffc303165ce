// Package authz is the role authorizer: one policy table mapping each
// capability to the role it requires, enforced against the stored user.
package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/metrics"
	apperrors "github.com/utafrali/shopper/pkg/errors"
	"github.com/utafrali/shopper/pkg/httputil"
	"github.com/utafrali/shopper/pkg/middleware"
)

// Capability names an action guarded by a role.
type Capability string

// Capabilities.
const (
	ProductManageOwn  Capability = "product.manage-own"
	OrderViewSeller   Capability = "order.view-seller"
	OrderUpdateStatus Capability = "order.update-status"
	StatsViewSeller   Capability = "stats.view-seller"
	ProductModerate   Capability = "product.moderate"
	UserManage        Capability = "user.manage"
	BlogManage        Capability = "blog.manage"
)

// Policy maps each capability to the single role allowed to use it.
type Policy map[Capability]string

// DefaultPolicy returns the service's policy table.
func DefaultPolicy() Policy {
	return Policy{
		ProductManageOwn:  domain.RoleSeller,
		OrderViewSeller:   domain.RoleSeller,
		OrderUpdateStatus: domain.RoleSeller,
		StatsViewSeller:   domain.RoleSeller,
		ProductModerate:   domain.RoleModerator,
		UserManage:        domain.RoleAdmin,
		BlogManage:        domain.RoleAdmin,
	}
}

// RoleSource loads the stored user behind an identity.
type RoleSource interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Authorizer checks capabilities against the user's stored role. The role is
// read on every call and never taken from the token.
type Authorizer struct {
	policy Policy
	users  RoleSource
	logger *slog.Logger
}

// New creates an Authorizer.
func New(policy Policy, users RoleSource, logger *slog.Logger) *Authorizer {
	return &Authorizer{policy: policy, users: users, logger: logger}
}

// Authorize returns nil when email's role is exactly the role required for
// capability, and a FORBIDDEN error otherwise.
func (a *Authorizer) Authorize(ctx context.Context, email string, capability Capability) error {
	required, ok := a.policy[capability]
	if !ok {
		metrics.AuthzDecisions.WithLabelValues(string(capability), metrics.OutcomeError).Inc()
		return fmt.Errorf("no policy for capability %q", capability)
	}

	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			metrics.AuthzDecisions.WithLabelValues(string(capability), metrics.OutcomeDeny).Inc()
			return apperrors.Forbidden("no user record for this identity")
		}
		metrics.AuthzDecisions.WithLabelValues(string(capability), metrics.OutcomeError).Inc()
		return fmt.Errorf("load role: %w", err)
	}

	if user.Role != required {
		metrics.AuthzDecisions.WithLabelValues(string(capability), metrics.OutcomeDeny).Inc()
		return apperrors.Forbidden(fmt.Sprintf("%s requires role %s", capability, required))
	}

	metrics.AuthzDecisions.WithLabelValues(string(capability), metrics.OutcomeAllow).Inc()
	return nil
}

// Require returns middleware that lets a request through only when the
// authenticated caller holds capability. It must run after middleware.Auth.
func (a *Authorizer) Require(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := middleware.EmailFromContext(r.Context())
			if email == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("missing identity"), a.logger)
				return
			}

			if err := a.Authorize(r.Context(), email, capability); err != nil {
				if errors.Is(err, apperrors.ErrForbidden) {
					a.logger.InfoContext(r.Context(), "access denied",
						slog.String("capability", string(capability)),
						slog.String("email", email),
					)
				}
				httputil.WriteError(w, r, err, a.logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
