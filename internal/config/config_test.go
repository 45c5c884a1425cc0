package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	assert.True(t, cfg.EnsureAccount())
	assert.False(t, cfg.EnsureAccount())
	cfg.Limits.MaxVersions = 7
	cfg.Storage.Compress = false

	require.NoError(t, SaveConfig(path, cfg))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	_, err = uuid.Parse(loaded.Account.ID)
	assert.NoError(t, err)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"limits":{"max_branches":4}}`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), cfg.Limits.MaxBranches)
	assert.Equal(t, uint32(100), cfg.Limits.MaxVersions)
	assert.Equal(t, ".vault", cfg.Storage.Dir)
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestGetSet(t *testing.T) {
	cfg := DefaultConfig()
	for _, tt := range []struct{ key, value string }{
		{"storage.dir", "/var/lib/vault"},
		{"storage.compress", "false"},
		{"limits.max_versions", "12"},
		{"limits.max_branches", "3"},
		{"cache.size", "9"},
		{"log.level", "debug"},
		{"account.id", "6f1c5d4e-3b2a-4c1d-9e8f-0a1b2c3d4e5f"},
	} {
		require.NoError(t, cfg.Set(tt.key, tt.value), tt.key)
		got, err := cfg.Get(tt.key)
		require.NoError(t, err)
		assert.Equal(t, tt.value, got)
	}
	for _, key := range Keys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestSetRejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	before := *cfg

	assert.ErrorIs(t, cfg.Set("limits.max_versions", "0"), ErrInvalid)
	assert.ErrorIs(t, cfg.Set("limits.max_branches", "x"), ErrInvalid)
	assert.ErrorIs(t, cfg.Set("limits.max_branches", "4294967296"), ErrInvalid)
	assert.ErrorIs(t, cfg.Set("storage.compress", "maybe"), ErrInvalid)
	assert.ErrorIs(t, cfg.Set("account.id", "not-a-uuid"), ErrInvalid)
	assert.ErrorIs(t, cfg.Set("storage.dir", ""), ErrInvalid)
	assert.Error(t, cfg.Set("user.name", "x"))
	assert.Error(t, cfg.Set("name", "x"))
	_, err := cfg.Get("core.editor")
	assert.Error(t, err)

	assert.Equal(t, before, *cfg)
}
