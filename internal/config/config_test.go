package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
packages_dir = "/opt/unarc/packages"
log_level = "debug"
max_parallel = 0
poll_interval_ms = 250

[backends]
tar = "/usr/local/bin/gtar"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/unarc/packages", cfg.PackagesDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1, cfg.MaxParallel)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, "/usr/local/bin/gtar", cfg.Backends.Tar)
	assert.Equal(t, "unzip", cfg.Backends.Unzip)
	assert.Equal(t, DefaultConfig().CacheDir, cfg.CacheDir)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_parallel = \"lots\"\n[["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestPollIntervalDefault(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval())
}
