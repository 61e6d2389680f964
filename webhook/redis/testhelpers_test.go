//go:build integration

package redis_test

import (
	"context"
	"strings"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/marcelsud/webhook-dispatch/webhook/redis"
)

/* Test Helpers for Redis Integration Tests
 * Following the pattern from: https://eltonminetto.dev/post/2024-02-15-using-test-helpers/
 */

// SetupRedis starts a Redis testcontainer and returns its address
func SetupRedis(t *testing.T, ctx context.Context) string {
	t.Helper()

	container, err := testcontainersredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	})

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err, "failed to get Redis connection string")

	return strings.TrimPrefix(addr, "redis://")
}

// CreateTestRepository creates a repository connected to addr
func CreateTestRepository(t *testing.T, addr string, opts ...redis.Option) *redis.Repository {
	t.Helper()

	repo, err := redis.NewRepository(addr, "", 0, opts...)
	require.NoError(t, err, "failed to create Redis repository")
	t.Cleanup(func() { repo.Close(context.Background()) })

	return repo
}

// GetKeyTTL returns the TTL of a Redis key in seconds
func GetKeyTTL(t *testing.T, addr string, key string) int64 {
	t.Helper()

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	defer client.Close()

	ttl, err := client.TTL(context.Background(), key).Result()
	require.NoError(t, err)

	return int64(ttl.Seconds())
}

// KeyExists checks if a Redis key exists
func KeyExists(t *testing.T, addr string, key string) bool {
	t.Helper()

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	defer client.Close()

	exists, err := client.Exists(context.Background(), key).Result()
	require.NoError(t, err)

	return exists > 0
}
