package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAccessors_Defaults verifies fallbacks for missing and mistyped keys.
func TestAccessors_Defaults(t *testing.T) {
	cfg := New(map[string]any{
		"name":    "support-flow",
		"retries": 5,
		"debug":   true,
		"ratio":   0.25,
		"window":  "24h",
		"bad":     []any{1, 2},
	})

	assert.Equal(t, "support-flow", cfg.String("name", "x"))
	assert.Equal(t, "x", cfg.String("missing", "x"))
	assert.Equal(t, "x", cfg.String("retries", "x"))

	assert.Equal(t, 5, cfg.Int("retries", 1))
	assert.Equal(t, 1, cfg.Int("missing", 1))

	assert.True(t, cfg.Bool("debug", false))
	assert.False(t, cfg.Bool("missing", false))

	assert.Equal(t, 0.25, cfg.Float("ratio", 1.0))
	assert.Equal(t, 24*time.Hour, cfg.Duration("window", time.Minute))
	assert.Equal(t, time.Minute, cfg.Duration("bad", time.Minute))
}

// TestAccessors_StringCoercion verifies env-style string values convert.
func TestAccessors_StringCoercion(t *testing.T) {
	cfg := New(map[string]any{
		"retries": "3",
		"debug":   "true",
		"ratio":   "0.5",
	})

	assert.Equal(t, 3, cfg.Int("retries", 0))
	assert.True(t, cfg.Bool("debug", false))
	assert.Equal(t, 0.5, cfg.Float("ratio", 0))
}

// TestDuration_NumberIsSeconds verifies numeric durations are seconds.
func TestDuration_NumberIsSeconds(t *testing.T) {
	cfg := New(map[string]any{"timeout": 30, "grace": 1.5})
	assert.Equal(t, 30*time.Second, cfg.Duration("timeout", 0))
	assert.Equal(t, 1500*time.Millisecond, cfg.Duration("grace", 0))
}

// TestFromYAML verifies YAML loading with nested sections.
func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte(`
windows:
  whatsapp: 12h
  telegram: 48h
retries: 3
`))
	require.NoError(t, err)

	windows := cfg.Section("windows")
	assert.Equal(t, 12*time.Hour, windows.Duration("whatsapp", 0))
	assert.Equal(t, 48*time.Hour, windows.Duration("telegram", 0))
	assert.Equal(t, 3, cfg.Int("retries", 0))
	assert.False(t, cfg.Section("missing").Has("anything"))
}

// TestFromJSON verifies JSON loading.
func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON([]byte(`{"windows":{"whatsapp":"6h"},"debug":true}`))
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, cfg.Section("windows").Duration("whatsapp", 0))
	assert.True(t, cfg.Bool("debug", false))
}

// TestFromEnvFile verifies dotenv loading with section separators.
func TestFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"WINDOWS__WHATSAPP=12h\nWINDOWS__INSTAGRAM=96h\nDEBUG=true\n",
	), 0o600))

	cfg, err := FromEnvFile(path)
	require.NoError(t, err)

	windows := cfg.Section("windows")
	assert.Equal(t, 12*time.Hour, windows.Duration("whatsapp", 0))
	assert.Equal(t, 96*time.Hour, windows.Duration("instagram", 0))
	assert.True(t, cfg.Bool("debug", false))
}

// TestFromFile verifies extension dispatch.
func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("retries: 2"), 0o600))
	cfg, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Int("retries", 0))

	_, err = FromFile(filepath.Join(dir, "cfg.toml"))
	assert.Error(t, err)
}
