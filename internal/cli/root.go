// Package cli implements the floorline command surface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mbakke/floorline/internal/board"
	"github.com/mbakke/floorline/internal/config"
	"github.com/mbakke/floorline/internal/db"
	"github.com/mbakke/floorline/internal/events"
	"github.com/mbakke/floorline/internal/logging"
	"github.com/mbakke/floorline/internal/store"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
)

type rootFlags struct {
	configFile string
	logLevel   string
	logFormat  string
}

// Execute runs the floorline CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:     "floorline",
		Short:   "Terminal production scheduling board",
		Long:    "Floorline renders equipment rows against a zoomable time axis\nand schedules production operations from the keyboard.",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			return board.Run(board.Config{
				Gateway:        app.gateway,
				Logger:         logging.Component("board"),
				RowHeight:      app.cfg.Board.RowHeight,
				WheelThreshold: app.cfg.Board.WheelThreshold,
				Debounce:       app.cfg.Board.Debounce,
				HistoryDepth:   app.cfg.Board.HistoryDepth,
				Rollback:       board.ParseRollbackPolicy(app.cfg.Board.RollbackPolicy),
				DefaultZoom:    board.ZoomLevel(app.cfg.Board.DefaultZoom),
			})
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is $HOME/.config/floorline/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "override logging format (json, console)")

	cmd.AddCommand(newSeedCmd(flags))
	return cmd
}

// app bundles the wired runtime dependencies of a command.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	database *db.DB
	gateway  *store.SQLiteGateway
}

func (a *app) Close() {
	if a.database != nil {
		_ = a.database.Close()
	}
}

func openApp(flags *rootFlags) (*app, error) {
	loader := config.NewLoader()
	if flags.configFile != "" {
		loader.SetConfigFile(flags.configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}
	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	logger := logging.Component("cli")

	if used := loader.ConfigFileUsed(); used != "" {
		logger.Debug().Str("config_file", used).Msg("loaded config file")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	database, err := db.Open(db.Options{
		Path:          cfg.Database.Path,
		BusyTimeoutMs: cfg.Database.BusyTimeoutMs,
		Logger:        logging.Component("db"),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	publisher := events.NewPublisher(
		events.WithRepository(db.NewEventRepository(database)),
		events.WithLogger(logging.Component("events")),
	)
	gateway := store.Open(store.Options{
		DB:        database,
		Publisher: publisher,
		Logger:    logging.Component("store"),
	})
	return &app{cfg: cfg, logger: logger, database: database, gateway: gateway}, nil
}
