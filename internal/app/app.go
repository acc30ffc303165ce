package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/utafrali/shopper/internal/auth"
	"github.com/utafrali/shopper/internal/authz"
	"github.com/utafrali/shopper/internal/config"
	"github.com/utafrali/shopper/internal/event"
	handler "github.com/utafrali/shopper/internal/handler/http"
	"github.com/utafrali/shopper/internal/provider"
	"github.com/utafrali/shopper/internal/provider/mock"
	"github.com/utafrali/shopper/internal/provider/razorpay"
	"github.com/utafrali/shopper/internal/provider/stripe"
	"github.com/utafrali/shopper/internal/repository"
	mongorepo "github.com/utafrali/shopper/internal/repository/mongo"
	"github.com/utafrali/shopper/internal/repository/postgres"
	redisrepo "github.com/utafrali/shopper/internal/repository/redis"
	"github.com/utafrali/shopper/internal/search"
	"github.com/utafrali/shopper/internal/service"
	"github.com/utafrali/shopper/migrations"
	"github.com/utafrali/shopper/pkg/database"
	"github.com/utafrali/shopper/pkg/health"
	"github.com/utafrali/shopper/pkg/httpclient"
	pkgkafka "github.com/utafrali/shopper/pkg/kafka"
	"github.com/utafrali/shopper/pkg/middleware"
	"github.com/utafrali/shopper/pkg/tracing"
)

const serviceName = "shopper"

// App wires together all dependencies and runs the shopper API.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	pool     *pgxpool.Pool
	mongoDB  *mongo.Database
	rdb      *redis.Client
	producer *pkgkafka.Producer
	dlq      *pkgkafka.DLQProducer

	consumers      []*pkgkafka.Consumer
	catalog        *service.ProductService
	searchEnabled  bool
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRate,
		Enabled:        cfg.OTLPEndpoint != "",
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	store, err := a.openStore(ctx, healthHandler)
	if err != nil {
		_ = a.closeResources()
		return nil, err
	}

	if cfg.SlowQueryThreshold > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	}

	// Payment idempotency keys and consumer dedup live in Redis when configured.
	var (
		paymentKeys service.IdempotencyStore
		eventKeys   pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(cfg.IdempotencyTTL)
	)
	if cfg.RedisAddr != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			_ = a.closeResources()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr), slog.Int("db", cfg.RedisDB))

		keys := redisrepo.NewIdempotencyStore(rdb, cfg.IdempotencyTTL)
		paymentKeys, eventKeys = keys, keys
		healthHandler.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	var publisher service.EventPublisher = event.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		healthHandler.Register("kafka", a.producer.Ping)

		// Without transactions the follow-up writes of a payment or review
		// are replayed from their events.
		if !store.Transactional {
			a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
			a.consumers = event.NewConsumers(
				event.ConsumerConfig{Brokers: cfg.KafkaBrokers, GroupID: cfg.KafkaConsumerGroup},
				event.NewCompensator(store.Carts, store.Reviews, logger),
				eventKeys,
				a.dlq,
				logger,
			)
		}
	}

	prov, err := newProvider(cfg, logger)
	if err != nil {
		_ = a.closeResources()
		return nil, err
	}
	logger.Info("payment provider selected",
		slog.String("provider", prov.Name()),
		slog.Bool("verify", cfg.PaymentVerify),
	)

	// Build the dependency graph.
	a.catalog = service.NewProductService(store.Products, store.Payments, publisher, logger)
	if cfg.ElasticsearchURL != "" {
		engine, err := search.New(ctx, search.Config{URL: cfg.ElasticsearchURL, Index: cfg.ElasticsearchIndex}, logger)
		if err != nil {
			_ = a.closeResources()
			return nil, fmt.Errorf("init elasticsearch: %w", err)
		}
		a.catalog.WithSearcher(engine)
		a.searchEnabled = true
		healthHandler.Register("elasticsearch", engine.Ping)
		logger.Info("elasticsearch product index initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	}

	users := service.NewUserService(store.Users, logger)
	services := handler.Services{
		Users:    users,
		Products: a.catalog,
		Carts:    service.NewCartService(store.Carts, store.Wishlists, store.Products, logger),
		Payments: service.NewPaymentService(store.Payments, prov, paymentKeys, publisher, service.PaymentConfig{
			Verify:   cfg.PaymentVerify,
			Currency: cfg.PaymentCurrency,
		}, logger),
		Orders:  service.NewOrderService(store.Payments, store.Products, publisher, logger),
		Reviews: service.NewReviewService(store.Reviews, store.Products, publisher, logger),
		Blogs:   service.NewBlogService(store.Blogs, logger),
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	router := handler.NewRouter(handler.RouterConfig{
		Services:     services,
		Issuer:       auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Authorizer:   authz.New(authz.DefaultPolicy(), users, logger),
		Health:       healthHandler,
		Logger:       logger,
		CORS:         cors,
		RateLimitRPS: cfg.RateLimitRPS,
		RateBurst:    cfg.RateLimitBurst,
		PprofCIDRs:   cfg.PprofAllowedCIDRs,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// openStore connects the configured backend and registers its health check.
func (a *App) openStore(ctx context.Context, h *health.Handler) (*repository.Store, error) {
	cfg, logger := a.cfg, a.logger

	switch cfg.StorageBackend {
	case config.BackendMongo:
		db, err := database.NewMongoDatabase(ctx, cfg.Mongo(), logger)
		if err != nil {
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}
		a.mongoDB = db
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			return nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		h.RegisterCritical("mongo", database.PingMongo(db))
		return mongorepo.NewStore(db), nil

	default:
		pgCfg := cfg.Postgres()
		pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.pool = pool
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}

		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")

		h.RegisterCritical("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
		return postgres.NewStore(pool), nil
	}
}

func newProvider(cfg *config.Config, logger *slog.Logger) (provider.Provider, error) {
	switch cfg.PaymentProvider {
	case config.ProviderMock:
		return mock.NewProvider(), nil
	case config.ProviderStripe:
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("stripe"),
			logger,
		)
		return stripe.NewProvider(stripe.Config{BaseURL: cfg.StripeBaseURL, SecretKey: cfg.StripeSecretKey}, client), nil
	case config.ProviderRazorpay:
		return razorpay.NewProvider(cfg.RazorpayKeyID, cfg.RazorpayKeySecret), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.PaymentProvider)
	}
}

// Run starts the HTTP server and the event consumers, rebuilds the product
// index when search is enabled, and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, c := range a.consumers {
		wg.Add(1)
		go func(c *pkgkafka.Consumer) {
			defer wg.Done()
			if err := c.Start(ctx); err != nil {
				a.logger.Error("consumer stopped", slog.String("topic", c.Topic()), slog.String("error", err.Error()))
			}
		}(c)
	}

	if a.searchEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := a.catalog.Reindex(ctx)
			if err != nil {
				a.logger.Warn("product reindex failed", slog.String("error", err.Error()))
				return
			}
			a.logger.Info("product index rebuilt", slog.Int("products", n))
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	cancel()
	wg.Wait()
	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components: the HTTP server first, then the
// tracer, the Kafka writers and finally the storage clients.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases everything NewApp may have opened.
func (a *App) closeResources() error {
	var errs []error

	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.mongoDB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongoDB.Client().Disconnect(ctx); err != nil {
			a.logger.Error("mongo disconnect error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
