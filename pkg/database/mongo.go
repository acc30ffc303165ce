package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

// NewMongoDatabase connects to MongoDB, pings the primary and returns the
// configured database handle. Startup failures are retried like Postgres.
func NewMongoDatabase(ctx context.Context, cfg MongoConfig, logger *slog.Logger) (*mongo.Database, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	var client *mongo.Client
	err := withRetry(ctx, "mongo", logger, func() error {
		c, err := mongo.Connect(ctx, opts)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		if err := c.Ping(pingCtx, readpref.Primary()); err != nil {
			_ = c.Disconnect(context.Background())
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return client.Database(cfg.Database), nil
}

// PingMongo is a health checker for db's client.
func PingMongo(db *mongo.Database) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := db.Client().Ping(ctx, readpref.Primary()); err != nil {
			return fmt.Errorf("ping mongo: %w", err)
		}
		return nil
	}
}
