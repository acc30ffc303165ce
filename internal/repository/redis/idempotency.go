// Package redis keeps idempotency keys for payment submissions and consumed
// events in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/utafrali/shopper/pkg/errors"
)

const (
	paymentKeyPrefix = "idem:payment:"
	eventKeyPrefix   = "idem:event:"

	// pendingMarker holds a payment key while its submission is in flight.
	pendingMarker = "pending"
)

// IdempotencyStore implements the payment idempotency store and
// kafka.IdempotencyStore on one Redis client.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates a store whose keys expire after ttl.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key for a new submission. When the key was already used it
// returns the payment recorded under it and reserved=false. A key whose
// submission is still in flight is a conflict.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	k := paymentKeyPrefix + key

	ok, err := s.client.SetNX(ctx, k, pendingMarker, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis reserve idempotency key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	val, err := s.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Released or expired between the two calls; claim again.
			return s.Reserve(ctx, key)
		}
		return "", false, fmt.Errorf("redis get idempotency key: %w", err)
	}
	if val == pendingMarker {
		return "", false, apperrors.Conflict("a payment with this idempotency key is in progress")
	}
	return val, false, nil
}

// Complete stores the payment id recorded for key.
func (s *IdempotencyStore) Complete(ctx context.Context, key, paymentID string) error {
	if err := s.client.Set(ctx, paymentKeyPrefix+key, paymentID, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis complete idempotency key: %w", err)
	}
	return nil
}

// Release frees key after a failed submission so the client may retry.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, paymentKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis release idempotency key: %w", err)
	}
	return nil
}

// Contains reports whether the event was already processed.
func (s *IdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, eventKeyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists event key: %w", err)
	}
	return n > 0, nil
}

// Add marks the event as processed.
func (s *IdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, eventKeyPrefix+eventID, 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis add event key: %w", err)
	}
	return nil
}
