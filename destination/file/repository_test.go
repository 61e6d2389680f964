package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelsud/webhook-dispatch/destination"
	"github.com/marcelsud/webhook-dispatch/destination/file"
)

const validFile = `
destinations:
  - id: "ops-slack"
    url: "https://hooks.slack.com/services/T000/B000/XXXX"
    channel: "slack"
  - id: "community-discord"
    url: "https://discord.com/api/webhooks/123/abc"
    channel: "discord"
    active: false
  - id: "crm"
    url: "https://crm.example.com/hooks/calls"
    headers:
      Authorization: "Bearer 123"
    max_retries: 3
    retry_delay: "250ms"
    success_status_codes: [200, 202]
  - id: "legacy"
    url: "https://legacy.example.com/in"
    channel: "teams"
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "destinations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("success - valid file", func(t *testing.T) {
		list, err := file.Load(writeFile(t, validFile))
		require.NoError(t, err)
		require.Len(t, list, 4)

		slack := list[0]
		assert.Equal(t, "ops-slack", slack.ID)
		assert.Equal(t, destination.Slack, slack.Channel)
		assert.True(t, slack.Active, "active defaults to true")
		assert.Nil(t, slack.MaxRetries)

		discord := list[1]
		assert.Equal(t, destination.Discord, discord.Channel)
		assert.False(t, discord.Active)

		crm := list[2]
		assert.Equal(t, destination.Generic, crm.Channel)
		assert.Equal(t, "Bearer 123", crm.Headers["Authorization"])
		require.NotNil(t, crm.MaxRetries)
		assert.Equal(t, 3, *crm.MaxRetries)
		require.NotNil(t, crm.RetryDelay)
		assert.Equal(t, 250*time.Millisecond, *crm.RetryDelay)
		assert.Equal(t, []int{200, 202}, crm.SuccessStatusCodes)

		assert.Equal(t, destination.Generic, list[3].Channel, "unknown channel tags fall back to generic")
	})

	t.Run("error - file not found", func(t *testing.T) {
		_, err := file.Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading destinations file")
	})

	t.Run("error - invalid YAML", func(t *testing.T) {
		_, err := file.Load(writeFile(t, "destinations: [[["))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing destinations YAML")
	})

	t.Run("error - invalid destination", func(t *testing.T) {
		_, err := file.Parse([]byte(`
destinations:
  - id: "broken"
    url: "not-a-url"
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validating destination")
	})

	t.Run("error - bad retry delay", func(t *testing.T) {
		_, err := file.Parse([]byte(`
destinations:
  - id: "slow"
    url: "https://example.com"
    retry_delay: "soon"
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing retry_delay")
	})

	t.Run("error - duplicate id", func(t *testing.T) {
		_, err := file.Parse([]byte(`
destinations:
  - id: "a"
    url: "https://example.com/1"
  - id: "a"
    url: "https://example.com/2"
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate destination id")
	})

	t.Run("empty document", func(t *testing.T) {
		list, err := file.Parse([]byte(""))
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo, err := file.NewRepository(writeFile(t, validFile))
	require.NoError(t, err)
	defer repo.Close(ctx)

	t.Run("get and list", func(t *testing.T) {
		d, err := repo.Get(ctx, "crm")
		require.NoError(t, err)
		assert.Equal(t, "https://crm.example.com/hooks/calls", d.URL)

		_, err = repo.Get(ctx, "unknown")
		assert.ErrorIs(t, err, destination.ErrNotFound)

		list, err := repo.List(ctx)
		require.NoError(t, err)
		ids := make([]string, 0, len(list))
		for _, d := range list {
			ids = append(ids, d.ID)
		}
		assert.Equal(t, []string{"community-discord", "crm", "legacy", "ops-slack"}, ids)
	})

	t.Run("record outcome", func(t *testing.T) {
		at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

		require.NoError(t, repo.RecordOutcome(ctx, "crm", false, at))
		require.NoError(t, repo.RecordOutcome(ctx, "crm", false, at))
		d, err := repo.Get(ctx, "crm")
		require.NoError(t, err)
		assert.Equal(t, 2, d.FailureCount)
		require.NotNil(t, d.LastTriggered)
		assert.Equal(t, at, *d.LastTriggered)

		require.NoError(t, repo.RecordOutcome(ctx, "crm", true, at.Add(time.Minute)))
		d, err = repo.Get(ctx, "crm")
		require.NoError(t, err)
		assert.Zero(t, d.FailureCount)
		assert.Equal(t, at.Add(time.Minute), *d.LastTriggered)

		assert.ErrorIs(t, repo.RecordOutcome(ctx, "unknown", true, at), destination.ErrNotFound)
	})

	t.Run("save and delete", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, destination.Destination{ID: "new", URL: "https://example.com"}))
		_, err := repo.Get(ctx, "new")
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, "new"))
		_, err = repo.Get(ctx, "new")
		assert.ErrorIs(t, err, destination.ErrNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, "new"), destination.ErrNotFound)
	})
}
