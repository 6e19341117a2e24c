package cli

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabledb/shard"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tablectl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)

	path := writeConfig(t, `
root: /var/lib/tables
hasher: murmur3
sync_writes: true
log_level: debug
`)
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Root:       "/var/lib/tables",
		Hasher:     shard.HashMurmur3,
		SyncWrites: true,
		LogLevel:   "debug",
	}, cfg)

	cfg, err = LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)

	_, err = LoadConfig(writeConfig(t, "rooot: /tmp\n"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_Level(t *testing.T) {
	tests := []struct {
		level   string
		verbose bool
		want    slog.Level
	}{
		{"", false, slog.LevelWarn},
		{"", true, slog.LevelDebug},
		{"info", false, slog.LevelInfo},
		{"error", true, slog.LevelDebug},
		{"Error", false, slog.LevelError},
	}
	for _, tt := range tests {
		got, err := Config{LogLevel: tt.level}.level(tt.verbose)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := Config{LogLevel: "loud"}.level(false)
	assert.Error(t, err)
}

func TestConfig_ProviderConfig(t *testing.T) {
	logger := slog.Default()

	cfg := Config{}.providerConfig(&RootOptions{}, logger)
	assert.Equal(t, DefaultRoot, cfg.Root)
	assert.Equal(t, shard.HashString, cfg.Hasher)

	cfg = Config{Root: "/from/file", Hasher: shard.HashMurmur3, SyncWrites: true}.providerConfig(&RootOptions{}, logger)
	assert.Equal(t, "/from/file", cfg.Root)
	assert.Equal(t, shard.HashMurmur3, cfg.Hasher)
	assert.True(t, cfg.SyncWrites)

	cfg = Config{Root: "/from/file"}.providerConfig(&RootOptions{Root: "/from/flag"}, logger)
	assert.Equal(t, "/from/flag", cfg.Root)
	assert.Same(t, logger, cfg.Logger)
}
