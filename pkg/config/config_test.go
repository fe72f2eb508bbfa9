package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestInitConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), again)
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, `
[protocol]
strict = false

[index]
compact_every = 100

[cli]
default_limit = 5
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Protocol.Strict)
	assert.Equal(t, 100, cfg.Index.CompactEvery)
	assert.Equal(t, 5, cfg.CLI.DefaultLimit)
	assert.Equal(t, 64, cfg.Server.MaxLimit, "unset keys keep defaults")
	assert.True(t, cfg.CLI.ShowScores)
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	// max_limit has the wrong type, so the typed decode fails
	path := writeFile(t, `
[protocol]
strict = false

[server]
max_limit = "lots"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Protocol.Strict)
	assert.Equal(t, 64, cfg.Server.MaxLimit)
}

func TestLoadConfigGarbage(t *testing.T) {
	path := writeFile(t, "this is [not toml")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Index:  IndexConfig{CompactEvery: -3},
		Server: ServerConfig{MaxLimit: 0},
		CLI:    CliConfig{DefaultLimit: -1},
	}
	cfg.Validate()
	assert.Equal(t, 0, cfg.Index.CompactEvery)
	assert.Equal(t, 64, cfg.Server.MaxLimit)
	assert.Equal(t, 10, cfg.CLI.DefaultLimit)
}

func TestLoadConfigWithPriorityCustomPath(t *testing.T) {
	path := writeFile(t, "[server]\nmax_limit = 8\n")
	cfg, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 8, cfg.Server.MaxLimit)
}

func TestLoadConfigWithPriorityFallsBackToDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, used, err := LoadConfigWithPriority(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, AppDir, filepath.Base(filepath.Dir(used)))
	assert.FileExists(t, used)
}
