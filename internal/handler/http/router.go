package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/shopper/internal/auth"
	"github.com/utafrali/shopper/internal/authz"
	"github.com/utafrali/shopper/internal/service"
	"github.com/utafrali/shopper/pkg/health"
	"github.com/utafrali/shopper/pkg/middleware"
)

const serviceName = "shopper"

// Services are the use cases the router exposes.
type Services struct {
	Users    *service.UserService
	Products *service.ProductService
	Carts    *service.CartService
	Payments *service.PaymentService
	Orders   *service.OrderService
	Reviews  *service.ReviewService
	Blogs    *service.BlogService
}

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Services   Services
	Issuer     *auth.TokenIssuer
	Authorizer *authz.Authorizer
	Health     *health.Handler
	Logger     *slog.Logger

	CORS         middleware.CORSConfig
	RateLimitRPS float64
	RateBurst    int
	PprofCIDRs   []string
}

// NewRouter creates a chi router with all shopper routes registered.
//
// Protected routes run the access guard first and the role authorizer second;
// handlers only see requests that passed both.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	authHandler := NewAuthHandler(cfg.Issuer, cfg.Services.Users, logger)
	productHandler := NewProductHandler(cfg.Services.Products, logger)
	cartHandler := NewCartHandler(cfg.Services.Carts, logger)
	paymentHandler := NewPaymentHandler(cfg.Services.Payments, logger)
	sellerHandler := NewSellerHandler(cfg.Services.Orders, logger)
	reviewHandler := NewReviewHandler(cfg.Services.Reviews, logger)
	blogHandler := NewBlogHandler(cfg.Services.Blogs, logger)
	adminHandler := NewAdminHandler(cfg.Services.Users, logger)

	require := cfg.Authorizer.Require

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		if cfg.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateBurst, logger))
		}

		r.Post("/jwt", authHandler.IssueToken)

		// Public catalog
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(30))

			r.Get("/products", productHandler.ListProducts)
			r.Get("/products/latest", productHandler.LatestProducts)
			r.Get("/products/top-selling", productHandler.TopSelling)
			r.Get("/products/{id}", productHandler.GetProduct)
			r.Get("/products/{id}/reviews", reviewHandler.ListReviews)
			r.Get("/blogs", blogHandler.ListBlogs)
			r.Get("/blogs/{id}", blogHandler.GetBlog)
		})

		// Any authenticated user
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Issuer.Validator()))
			r.Use(middleware.RequestLogger(logger))

			r.Post("/users", authHandler.Register)
			r.Get("/users/me", authHandler.Me)

			r.Get("/cart", cartHandler.GetCart)
			r.Post("/cart", cartHandler.AddItem)
			r.Patch("/cart/{id}", cartHandler.UpdateQuantity)
			r.Delete("/cart/{id}", cartHandler.RemoveItem)

			r.Get("/wishlist", cartHandler.GetWishlist)
			r.Post("/wishlist", cartHandler.AddToWishlist)
			r.Delete("/wishlist/{id}", cartHandler.RemoveFromWishlist)

			r.Post("/payments/intent", paymentHandler.CreateIntent)
			r.Post("/payments", paymentHandler.Submit)
			r.Get("/payments", paymentHandler.History)

			r.Post("/reviews", reviewHandler.CreateReview)

			r.Route("/seller", func(r chi.Router) {
				r.With(require(authz.ProductManageOwn)).Get("/products", productHandler.ListOwn)
				r.With(require(authz.ProductManageOwn)).Post("/products", productHandler.CreateProduct)
				r.With(require(authz.ProductManageOwn)).Put("/products/{id}", productHandler.UpdateProduct)
				r.With(require(authz.ProductManageOwn)).Delete("/products/{id}", productHandler.DeleteProduct)

				r.With(require(authz.OrderViewSeller)).Get("/orders", sellerHandler.Orders)
				r.With(require(authz.OrderUpdateStatus)).Patch("/orders/{id}/status", sellerHandler.UpdateOrderStatus)

				r.With(require(authz.StatsViewSeller)).Get("/stats/activity", sellerHandler.Activity)
				r.With(require(authz.StatsViewSeller)).Get("/stats/monthly", sellerHandler.Monthly)
			})

			r.Route("/moderator", func(r chi.Router) {
				r.Use(require(authz.ProductModerate))

				r.Get("/products", productHandler.ModerationQueue)
				r.Patch("/products/{id}/status", productHandler.Moderate)
			})

			r.Route("/admin", func(r chi.Router) {
				r.With(require(authz.UserManage)).Get("/users", adminHandler.ListUsers)
				r.With(require(authz.UserManage)).Patch("/users/{email}/role", adminHandler.UpdateRole)

				r.With(require(authz.BlogManage)).Post("/blogs", blogHandler.CreateBlog)
				r.With(require(authz.BlogManage)).Delete("/blogs/{id}", blogHandler.DeleteBlog)
			})
		})
	})

	return r
}
