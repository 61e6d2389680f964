package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))
	return dir
}

func TestLoad(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, BackendFile, cfg.RegistryBackend)
		assert.Equal(t, "destinations.yaml", cfg.DestinationsFile)
		assert.Equal(t, time.Hour, cfg.DeliveredTTL())
		assert.Equal(t, 24*time.Hour, cfg.FailedTTL())

		d := cfg.DeliveryConfig()
		assert.Equal(t, 1, d.Retries)
		assert.Equal(t, time.Second, d.Delay)
		assert.Equal(t, 10*time.Second, d.Timeout)
		assert.Equal(t, []int{200, 201, 204}, d.SuccessStatusCodes)
		assert.Equal(t, "application/json", d.Headers["Content-Type"])
	})

	t.Run("reads the toml file", func(t *testing.T) {
		dir := writeEnv(t, `
PORT = "9090"
REGISTRY_BACKEND = "redis"
REDIS_ADDR = "localhost:6379"
DELIVERY_RETRIES = 3
DELIVERY_DELAY_MS = 250
DELIVERY_SUCCESS_STATUS = "200, 202"
FAILED_TTL_HOURS = 48
`)
		cfg, err := Load(dir)
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, "localhost:6379", cfg.RedisAddr)
		assert.Equal(t, 48*time.Hour, cfg.FailedTTL())

		d := cfg.DeliveryConfig()
		assert.Equal(t, 3, d.Retries)
		assert.Equal(t, 250*time.Millisecond, d.Delay)
		assert.Equal(t, []int{200, 202}, d.SuccessStatusCodes)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		dir := writeEnv(t, `PORT = "9090"`)
		t.Setenv("PORT", "7070")

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "7070", cfg.Port)
	})

	t.Run("negative retries are clamped", func(t *testing.T) {
		t.Setenv("DELIVERY_RETRIES", "-2")
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.DeliveryConfig().Retries)
	})

	t.Run("invalid settings", func(t *testing.T) {
		tests := []struct {
			name string
			env  map[string]string
			want string
		}{
			{"unknown backend", map[string]string{"REGISTRY_BACKEND": "mongo"}, "invalid REGISTRY_BACKEND"},
			{"redis without address", map[string]string{"REGISTRY_BACKEND": "redis"}, "REDIS_ADDR is required"},
			{"postgres without url", map[string]string{"REGISTRY_BACKEND": "postgres"}, "POSTGRES_URL is required"},
			{"bad status list", map[string]string{"DELIVERY_SUCCESS_STATUS": "200,abc"}, "invalid DELIVERY_SUCCESS_STATUS"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				for k, v := range tt.env {
					t.Setenv(k, v)
				}
				_, err := Load(t.TempDir())
				assert.ErrorContains(t, err, tt.want)
			})
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := Load(writeEnv(t, "PORT = \n"))
		assert.ErrorContains(t, err, "reading config file")
	})
}
