// Package config handles Floorline configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for Floorline.
type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Board settings
	Board BoardConfig `yaml:"board" mapstructure:"board"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeout is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// BoardConfig contains board behavior settings.
type BoardConfig struct {
	// RowHeight is how many terminal lines each equipment row occupies.
	RowHeight int `yaml:"row_height" mapstructure:"row_height"`

	// WheelThreshold is the accumulated wheel delta per row step.
	WheelThreshold int `yaml:"wheel_threshold" mapstructure:"wheel_threshold"`

	// Debounce is how long staged edits wait before committing.
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`

	// HistoryDepth bounds the undo and redo stacks.
	HistoryDepth int `yaml:"history_depth" mapstructure:"history_depth"`

	// RollbackPolicy is what happens to local state on a failed save
	// (none, on-failure).
	RollbackPolicy string `yaml:"rollback_policy" mapstructure:"rollback_policy"`

	// DefaultZoom is the starting zoom level
	// (hour, day, week, month, quarter, year).
	DefaultZoom string `yaml:"default_zoom" mapstructure:"default_zoom"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		Database: DatabaseConfig{
			Path:          filepath.Join(dataDir, "floorline.db"),
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Board: BoardConfig{
			RowHeight:      2,
			WheelThreshold: 30,
			Debounce:       300 * time.Millisecond,
			HistoryDepth:   50,
			RollbackPolicy: "on-failure",
			DefaultZoom:    "month",
		},
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must be set")
	}
	if c.Board.RowHeight < 1 {
		return fmt.Errorf("board.row_height must be at least 1")
	}
	if c.Board.HistoryDepth < 1 {
		return fmt.Errorf("board.history_depth must be at least 1")
	}
	switch c.Board.RollbackPolicy {
	case "none", "on-failure":
	default:
		return fmt.Errorf("board.rollback_policy must be none or on-failure, got %q", c.Board.RollbackPolicy)
	}
	switch c.Board.DefaultZoom {
	case "hour", "day", "week", "month", "quarter", "year":
	default:
		return fmt.Errorf("invalid board.default_zoom %q", c.Board.DefaultZoom)
	}
	return nil
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "floorline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "floorline")
}
