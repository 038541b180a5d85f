package suppression

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store is a time-boxed marker keyed by product: while a marker is live, a
// duplicate low-stock alert for that product is dropped. Creation is
// check-then-set; two alerts racing through the window may both pass, which
// is an accepted limitation of the at-most-once-per-window guarantee.
type Store interface {
	IsSuppressed(ctx context.Context, productID uuid.UUID) (bool, error)
	Suppress(ctx context.Context, productID uuid.UUID, ttl time.Duration) error
}

// RedisStore implements Store on Redis, mapping product id to the marker's
// expiry timestamp with a matching key TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(productID uuid.UUID) string {
	return fmt.Sprintf("low_stock_notified:%s", productID)
}

func (s *RedisStore) IsSuppressed(ctx context.Context, productID uuid.UUID) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(productID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Suppress(ctx context.Context, productID uuid.UUID, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).UTC().Format(time.RFC3339)
	return s.client.Set(ctx, s.key(productID), expiresAt, ttl).Err()
}
