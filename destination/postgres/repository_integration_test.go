//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelsud/webhook-dispatch/destination"
)

func TestRepository_Integration(t *testing.T) {
	ctx := context.Background()
	repo := CreateTestRepository(t, ctx)

	retries := 0
	delay := 250 * time.Millisecond
	now := time.Now().UTC().Truncate(time.Millisecond)

	crm := destination.Destination{
		ID:                 "crm",
		URL:                "https://crm.example.com/hooks",
		Channel:            destination.Generic,
		Headers:            map[string]string{"Authorization": "Bearer 123"},
		Active:             true,
		MaxRetries:         &retries,
		RetryDelay:         &delay,
		SuccessStatusCodes: []int{200, 202},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	t.Run("save and get", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, crm))

		got, err := repo.Get(ctx, "crm")
		require.NoError(t, err)
		assert.Equal(t, crm.URL, got.URL)
		assert.Equal(t, crm.Headers, got.Headers)
		require.NotNil(t, got.MaxRetries)
		assert.Equal(t, 0, *got.MaxRetries)
		require.NotNil(t, got.RetryDelay)
		assert.Equal(t, delay, *got.RetryDelay)
		assert.Equal(t, []int{200, 202}, got.SuccessStatusCodes)
		assert.True(t, now.Equal(got.CreatedAt))
	})

	t.Run("save upserts", func(t *testing.T) {
		updated := crm
		updated.Active = false
		updated.MaxRetries = nil
		updated.Channel = destination.Discord
		require.NoError(t, repo.Save(ctx, updated))

		got, err := repo.Get(ctx, "crm")
		require.NoError(t, err)
		assert.False(t, got.Active)
		assert.Nil(t, got.MaxRetries)
		assert.Equal(t, destination.Discord, got.Channel)
		assert.Equal(t, 1, CountRows(t, ctx, repo))
	})

	t.Run("record outcome", func(t *testing.T) {
		at := time.Now().UTC().Truncate(time.Millisecond)

		require.NoError(t, repo.RecordOutcome(ctx, "crm", false, at))
		require.NoError(t, repo.RecordOutcome(ctx, "crm", false, at))
		got, err := repo.Get(ctx, "crm")
		require.NoError(t, err)
		assert.Equal(t, 2, got.FailureCount)
		require.NotNil(t, got.LastTriggered)
		assert.True(t, at.Equal(*got.LastTriggered))

		require.NoError(t, repo.RecordOutcome(ctx, "crm", true, at))
		got, err = repo.Get(ctx, "crm")
		require.NoError(t, err)
		assert.Zero(t, got.FailureCount)

		assert.ErrorIs(t, repo.RecordOutcome(ctx, "ghost", true, at), destination.ErrNotFound)
	})

	t.Run("list and delete", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, destination.Destination{
			ID: "alerts", URL: "https://hooks.slack.com/x", Channel: destination.Slack,
			Active: true, CreatedAt: now, UpdatedAt: now,
		}))

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "alerts", list[0].ID)
		assert.Nil(t, list[0].SuccessStatusCodes)

		require.NoError(t, repo.Delete(ctx, "alerts"))
		assert.ErrorIs(t, repo.Delete(ctx, "alerts"), destination.ErrNotFound)

		_, err = repo.Get(ctx, "alerts")
		assert.ErrorIs(t, err, destination.ErrNotFound)
	})
}
