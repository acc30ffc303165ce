package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/shopper/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, user_email, trace_id and span_id. Mount it after
// RequestLogging and Tracing; mount it again inside Auth to pick up the email.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if email := EmailFromContext(ctx); email != "" {
				ctx = logger.WithUserEmail(ctx, email)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
