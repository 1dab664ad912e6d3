package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir()) // no global config

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "disabled", cfg.AIMode)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "standard", cfg.Profile)
	assert.Equal(t, "all", cfg.Scope)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 120, cfg.TimeoutSeconds)
	assert.NotContains(t, cfg.DBPath, "~")
}

func TestLoadLocalFileOverridesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	local := filepath.Join(dir, "specl.json")
	require.NoError(t, os.WriteFile(local, []byte(`{"profile":"lean","ai_mode":"cloud","api_key":"sk-x"}`), 0o644))

	cfg, err := Load(local)
	require.NoError(t, err)
	assert.Equal(t, "lean", cfg.Profile)
	assert.Equal(t, "cloud", cfg.AIMode)
	assert.Equal(t, "sk-x", cfg.APIKey)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	local := filepath.Join(dir, "specl.json")
	require.NoError(t, os.WriteFile(local, []byte(`{"scope":"p0_only"}`), 0o644))

	t.Setenv("SPECL_SCOPE", "p0_p1")
	t.Setenv("SPECL_MODEL", "qwen2.5")

	cfg, err := Load(local)
	require.NoError(t, err)
	assert.Equal(t, "p0_p1", cfg.Scope)
	assert.Equal(t, "qwen2.5", cfg.Model)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Setenv("SPECL_AI_MODE", "turbo")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestExpandHomePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, "x.db"), expandHomePath("~/x.db"))
	assert.Equal(t, "/abs/x.db", expandHomePath("/abs/x.db"))
}
