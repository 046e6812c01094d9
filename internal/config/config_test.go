package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "editor: vim\nlog:\n  level: debug\n  format: json\ndisplay:\n  page_size: 20\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("CLAWTRACK_LOG_LEVEL", "error")
	t.Setenv("CLAWTRACK_DB_PATH", "/tmp/leads.db")
	t.Setenv("CLAWTRACK_DEFAULTS_STALE_THRESHOLD_DAYS", "10")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "vim", cfg.Editor)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 20, cfg.Display.PageSize)
	assert.Equal(t, "/tmp/leads.db", cfg.DBPath)
	assert.Equal(t, 10, cfg.Defaults.StaleThresholdDays)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0o644))

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := Default()
	want.Editor = "nano"
	want.Display.PageSize = 5

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNormalize(t *testing.T) {
	cfg := Normalize(Config{
		Editor: "  code  ",
		Log:    Default().Log,
	})
	cfg.Log.Level = "LOUD"
	cfg = Normalize(cfg)

	assert.Equal(t, "code", cfg.Editor)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, DefaultPageSize, cfg.Display.PageSize)
	assert.Equal(t, 7, cfg.Defaults.StaleThresholdDays)
}

func TestPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/xdg/clawtrack/config.yaml", p)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "db_path", envKey("CLAWTRACK_DB_PATH"))
	assert.Equal(t, "log.format", envKey("CLAWTRACK_LOG_FORMAT"))
	assert.Equal(t, "display.page_size", envKey("CLAWTRACK_DISPLAY_PAGE_SIZE"))
	assert.Equal(t, "editor", envKey("CLAWTRACK_EDITOR"))
}
