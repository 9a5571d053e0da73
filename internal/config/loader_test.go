package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	require.NotEmpty(t, cfg.Database.Path)
	require.Equal(t, 5000, cfg.Database.BusyTimeoutMs)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, 2, cfg.Board.RowHeight)
	require.Equal(t, 30, cfg.Board.WheelThreshold)
	require.Equal(t, 300*time.Millisecond, cfg.Board.Debounce)
	require.Equal(t, 50, cfg.Board.HistoryDepth)
	require.Equal(t, "on-failure", cfg.Board.RollbackPolicy)
	require.Equal(t, "month", cfg.Board.DefaultZoom)
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  path: /tmp/floorline-test.db
board:
  row_height: 3
  history_depth: 10
  rollback_policy: none
  default_zoom: week
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/floorline-test.db", cfg.Database.Path)
	require.Equal(t, 3, cfg.Board.RowHeight)
	require.Equal(t, 10, cfg.Board.HistoryDepth)
	require.Equal(t, "none", cfg.Board.RollbackPolicy)
	require.Equal(t, "week", cfg.Board.DefaultZoom)
	require.Equal(t, "debug", cfg.Logging.Level)
	// Untouched keys keep their defaults.
	require.Equal(t, 30, cfg.Board.WheelThreshold)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	writeAndLoad := func(content string) error {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := LoadFromFile(path)
		return err
	}

	require.Error(t, writeAndLoad("board:\n  rollback_policy: sometimes\n"))
	require.Error(t, writeAndLoad("board:\n  default_zoom: decade\n"))
	require.Error(t, writeAndLoad("board:\n  row_height: 0\n"))
	require.Error(t, writeAndLoad("board:\n  history_depth: -1\n"))
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FLOORLINE_BOARD_DEFAULT_ZOOM", "day")
	t.Setenv("FLOORLINE_LOGGING_LEVEL", "warn")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.Equal(t, "day", cfg.Board.DefaultZoom)
	require.Equal(t, "warn", cfg.Logging.Level)
}
