package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyStore remembers idempotency keys of checkouts already attempted. Keys are
// scoped to the customer that sent them.
type KeyStore interface {
	// Reserve returns false when the customer already used key.
	Reserve(ctx context.Context, customerID int64, key string) (bool, error)
	Release(ctx context.Context, customerID int64, key string) error
}

type redisKeyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisKeyStore(client *redis.Client, ttl time.Duration) KeyStore {
	return &redisKeyStore{client: client, ttl: ttl}
}

func idempotencyKey(customerID int64, key string) string {
	return fmt.Sprintf("checkout:idempotency:%d:%s", customerID, key)
}

func (s *redisKeyStore) Reserve(ctx context.Context, customerID int64, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyKey(customerID, key), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("checkout: failed to reserve idempotency key: %w", err)
	}
	return ok, nil
}

func (s *redisKeyStore) Release(ctx context.Context, customerID int64, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(customerID, key)).Err(); err != nil {
		return fmt.Errorf("checkout: failed to release idempotency key: %w", err)
	}
	return nil
}

type noopKeyStore struct{}

// NewNoopKeyStore accepts every key. Used when redis is not configured.
func NewNoopKeyStore() KeyStore {
	return noopKeyStore{}
}

func (noopKeyStore) Reserve(context.Context, int64, string) (bool, error) { return true, nil }
func (noopKeyStore) Release(context.Context, int64, string) error         { return nil }
