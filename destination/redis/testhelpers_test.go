//go:build integration

package redis_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/marcelsud/webhook-dispatch/destination/redis"
)

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

// CreateTestRepository creates a repository connected to a fresh container
func CreateTestRepository(t *testing.T, ctx context.Context) *redis.Repository {
	t.Helper()

	repo, err := redis.NewRepository(SetupRedis(t, ctx), "", 0)
	require.NoError(t, err, "failed to create Redis repository")
	t.Cleanup(func() { repo.Close(context.Background()) })

	return repo
}
