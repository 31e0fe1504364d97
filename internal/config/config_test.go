package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults fill what the file omits", func(t *testing.T) {
		// Given: a config with only the log level
		path := writeConfig(t, "log-level: debug\n")

		// When: it is loaded
		config, err := Load(path)
		require.NoError(t, err)

		// Then: every other field has its default
		assert.Equal(t, "debug", config.LogLevel)
		assert.Equal(t, "9090", config.HTTPPort)
		assert.Equal(t, DriverRedis, config.Storage)
		assert.Equal(t, "localhost:6379", config.Redis.GetRedisAddr())
		assert.Equal(t, "games:events", config.Redis.EventsChannel)
		assert.Equal(t, int64(1000), config.Game.StartingBalance)
		assert.Equal(t, int32(10), config.Postgres.MaxConns)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "game:\n  starting-balance: 500\n")
		t.Setenv("STARTING_BALANCE", "2500")

		config, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, int64(2500), config.Game.StartingBalance)
	})

	t.Run("Postgres needs a dsn", func(t *testing.T) {
		_, err := Load(writeConfig(t, "storage: postgres\n"))

		require.ErrorContains(t, err, "dsn")
	})

	t.Run("Unknown storage", func(t *testing.T) {
		_, err := Load(writeConfig(t, "storage: sqlite\n"))

		require.ErrorContains(t, err, "unknown storage")
	})

	t.Run("MustLoad panics on a missing file", func(t *testing.T) {
		assert.Panics(t, func() {
			MustLoad(filepath.Join(t.TempDir(), "missing.yml"))
		})
	})
}
