package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOMLRoundTrip(t *testing.T) {
	type section struct {
		Limit  int  `toml:"limit"`
		Strict bool `toml:"strict"`
	}
	type doc struct {
		Main section `toml:"main"`
	}

	path := filepath.Join(t.TempDir(), "nested", "cfg.toml")
	require.NoError(t, EnsureDir(filepath.Dir(path)))
	require.NoError(t, SaveTOMLFile(doc{Main: section{Limit: 7, Strict: true}}, path))
	assert.True(t, FileExists(path))

	var got doc
	require.NoError(t, LoadTOMLFile(path, &got))
	assert.Equal(t, 7, got.Main.Limit)
	assert.True(t, got.Main.Strict)

	raw, err := ParseTOMLWithRecovery(path)
	require.NoError(t, err)
	main, ok := ExtractSection(raw, "main")
	require.True(t, ok)
	limit, ok := ExtractInt64(main, "limit")
	assert.True(t, ok)
	assert.Equal(t, 7, limit)
	strict, ok := ExtractBool(main, "strict")
	assert.True(t, ok)
	assert.True(t, strict)

	_, ok = ExtractInt64(main, "missing")
	assert.False(t, ok)
}

func TestCheckDirStatus(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	res := CheckDirStatus(dir)
	assert.NoError(t, res.Error)
	assert.True(t, res.Exists)
	assert.True(t, res.Writable)
}

func TestGetAbsolutePath(t *testing.T) {
	assert.Equal(t, "unknown", GetAbsolutePath(""))
	assert.True(t, filepath.IsAbs(GetAbsolutePath("config.toml")))
}
