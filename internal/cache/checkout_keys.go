package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// CheckoutKeyCache is a read-through cache from (user, idempotency token) to order id.
// The database record stays authoritative; entries expire with the dedupe window.
type CheckoutKeyCache struct {
	client *redis.Client
}

func NewCheckoutKeyCache(client *redis.Client) *CheckoutKeyCache {
	return &CheckoutKeyCache{client: client}
}

func checkoutKey(userID, token string) string {
	return fmt.Sprintf("idem:checkout:%s:%s", userID, token)
}

// Get returns the cached order id and whether it was present.
func (c *CheckoutKeyCache) Get(ctx context.Context, userID, token string) (uint, bool, error) {
	v, err := c.client.Get(ctx, checkoutKey(userID, token)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt checkout key entry: %w", err)
	}
	return uint(id), true, nil
}

func (c *CheckoutKeyCache) Set(ctx context.Context, userID, token string, orderID uint, ttl time.Duration) error {
	return c.client.Set(ctx, checkoutKey(userID, token), strconv.FormatUint(uint64(orderID), 10), ttl).Err()
}
