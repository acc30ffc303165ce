package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/shopper/pkg/config"
	"github.com/utafrali/shopper/pkg/database"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Payment providers.
const (
	ProviderMock     = "mock"
	ProviderStripe   = "stripe"
	ProviderRazorpay = "razorpay"
)

// Config holds all configuration for the shopper service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"5000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Storage
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"postgres"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"shopper"`
	PostgresPass     string `env:"POSTGRES_PASSWORD" envDefault:"shopper_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"shopper"`
	PostgresSSL      string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"20"`

	// MongoDB
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"shopper"`

	// Redis, optional. Empty disables payment idempotency keys.
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Kafka, optional. Empty disables event publishing and consumers.
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"shopper"`

	// Elasticsearch, optional. Empty keeps catalog search on the repository.
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"shopper_products"`

	// JWT
	JWTSecret string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"10h"`

	// Payments
	PaymentProvider   string `env:"PAYMENT_PROVIDER" envDefault:"mock"`
	PaymentVerify     bool   `env:"PAYMENT_VERIFY" envDefault:"true"`
	PaymentCurrency   string `env:"PAYMENT_CURRENCY" envDefault:"usd"`
	StripeSecretKey   string `env:"STRIPE_SECRET_KEY"`
	StripeBaseURL     string `env:"STRIPE_BASE_URL" envDefault:"https://api.stripe.com"`
	RazorpayKeyID     string `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `env:"RAZORPAY_KEY_SECRET"`

	// Tracing
	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TraceSampleRate float64 `env:"OTEL_TRACE_SAMPLE_RATE" envDefault:"0.1"`

	// Public route rate limit, per client IP
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// pprof, disabled when empty
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	SlowQueryThreshold time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`
}

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	if err := pkgconfig.LoadDotenv(); err != nil {
		return nil, fmt.Errorf("load shopper config: %w", err)
	}
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load shopper config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	switch c.StorageBackend {
	case BackendPostgres, BackendMongo:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.PaymentProvider {
	case ProviderMock:
	case ProviderStripe:
		if c.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required for the stripe provider")
		}
	case ProviderRazorpay:
		if c.RazorpayKeyID == "" || c.RazorpayKeySecret == "" {
			return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required for the razorpay provider")
		}
	default:
		return fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.PaymentProvider)
	}

	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}

	// Outside development, require an explicitly set, strong JWT secret.
	if !c.IsDevelopment() {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
		if c.PaymentProvider == ProviderMock {
			return fmt.Errorf("the mock payment provider is only allowed in development")
		}
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Postgres returns the pool configuration.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		User:     c.PostgresUser,
		Password: c.PostgresPass,
		DBName:   c.PostgresDB,
		SSLMode:  c.PostgresSSL,
		MaxConns: c.PostgresMaxConns,
	}
}

// Mongo returns the MongoDB connection configuration.
func (c *Config) Mongo() database.MongoConfig {
	return database.MongoConfig{URI: c.MongoURI, Database: c.MongoDatabase}
}

// Redis returns the Redis connection configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}
