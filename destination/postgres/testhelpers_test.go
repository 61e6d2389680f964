//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	defaultDatabase = "dispatch"
	defaultUser     = "dispatch"
	defaultPassword = "dispatch"
)

// SetupPostgres starts a PostgreSQL testcontainer and returns its connection string
func SetupPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(defaultDatabase),
		postgres.WithUsername(defaultUser),
		postgres.WithPassword(defaultPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate Postgres container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	return connStr
}

// CreateTestRepository connects to a fresh container and creates the schema
func CreateTestRepository(t *testing.T, ctx context.Context) *Repository {
	t.Helper()

	repo, err := NewRepository(SetupPostgres(t, ctx))
	require.NoError(t, err)
	require.NoError(t, repo.CreateTable(ctx))
	t.Cleanup(func() { repo.Close(context.Background()) })

	return repo
}

// CountRows returns the number of stored destinations
func CountRows(t *testing.T, ctx context.Context, repo *Repository) int {
	t.Helper()

	var count int
	err := repo.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM webhook_destinations").Scan(&count)
	require.NoError(t, err)
	return count
}
