//go:build integration

package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/marcelsud/webhook-dispatch/destination"
	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/marcelsud/webhook-dispatch/webhook/payload"
	wbredis "github.com/marcelsud/webhook-dispatch/webhook/redis"
)

type fixedLister []destination.Destination

func (l fixedLister) List(context.Context) ([]destination.Destination, error) { return l, nil }

func TestRedisCollector_Integration(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainersredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })
	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	repo, err := wbredis.NewRepository(strings.TrimPrefix(addr, "redis://"), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close(ctx) })

	now := time.Now()
	for _, id := range []string{"d-1", "d-2", "d-3"} {
		_, err := repo.Store(ctx, webhook.Delivery{
			ID: id, DestinationID: "crm", Kind: webhook.Raw, Payload: payload.NewText(id),
			Status: webhook.Pending, CreatedAt: now, UpdatedAt: now,
		})
		require.NoError(t, err)
	}

	// One delivery consumed and finished, one consumed but still in flight
	got, err := repo.Consume(ctx, "crm")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NoError(t, repo.UpdateStatus(ctx, got[0].ID, webhook.Delivered))
	require.NoError(t, repo.Acknowledge(ctx, "crm", got[0].ID))

	got, err = repo.Consume(ctx, "crm")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NoError(t, repo.UpdateStatus(ctx, got[0].ID, webhook.Delivering))

	require.NoError(t, repo.SetWorkerHeartbeat(ctx, "w-1", "crm", "processing"))

	collector := NewRedisCollector(repo.Client(), fixedLister{{ID: "crm"}, {ID: "idle"}})
	m, err := collector.Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), m.QueueLengths["crm"], "one unread plus one unacknowledged")
	assert.Equal(t, int64(0), m.QueueLengths["idle"])
	assert.Equal(t, int64(1), m.StatusCounts["pending"])
	assert.Equal(t, int64(1), m.StatusCounts["delivering"])
	assert.Equal(t, int64(1), m.StatusCounts["delivered"])
	assert.Equal(t, int64(0), m.StatusCounts["failed"])
	assert.Equal(t, int64(1), m.Throughput.LastMinute)
	assert.Equal(t, int64(1), m.Throughput.LastFifteenMinutes)
	require.Len(t, m.Workers["crm"], 1)
	assert.Equal(t, "processing", m.Workers["crm"][0].Status)
}
