package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutKeyFormat(t *testing.T) {
	assert.Equal(t, "idem:checkout:discord:42:abc", checkoutKey("discord:42", "abc"))
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestCheckoutKeyCache_UnreachableServerReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := NewCheckoutKeyCache(client)

	_, ok, err := c.Get(context.Background(), "u", "k")
	require.Error(t, err)
	assert.False(t, ok)
	require.Error(t, c.Set(context.Background(), "u", "k", 7, time.Minute))
}
