package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/config"
	"spendwise/internal/storage"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug", "json", "api")
	assert.Equal(t, "api", logger.Component())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = SetupLogger("loud", "text", "api")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SPENDWISE_CLI_TEST_VAR=from-file\n"), 0o600))

	t.Setenv("SPENDWISE_CLI_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("SPENDWISE_CLI_TEST_VAR"))
	LoadEnvFile(path)
	assert.Equal(t, "from-file", os.Getenv("SPENDWISE_CLI_TEST_VAR"))

	t.Setenv("SPENDWISE_CLI_TEST_VAR", "from-env")
	LoadEnvFile(path)
	assert.Equal(t, "from-env", os.Getenv("SPENDWISE_CLI_TEST_VAR"), "existing variables win")

	assert.NotPanics(t, func() { LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")) })
}

func TestStorageOptions(t *testing.T) {
	cfg := &config.Config{
		DBDriver:       config.DriverSQLite,
		SQLiteDBPath:   "/tmp/x.db",
		DBMaxOpenConns: 3,
		DBMaxIdleConns: 2,
	}
	opts := StorageOptions(cfg)
	assert.Equal(t, storage.DriverSQLite, opts.Driver)
	assert.Equal(t, "/tmp/x.db?_pragma=busy_timeout(5000)", opts.DSN)
	assert.Equal(t, 3, opts.MaxOpenConns)
	assert.Equal(t, 2, opts.MaxIdleConns)
}
