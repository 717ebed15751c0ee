package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HerbHall/markstash/internal/config"
	"github.com/HerbHall/markstash/internal/version"
)

// app holds state shared by every subcommand after config is loaded.
type app struct {
	configPath string
	cfg        *config.Config
	settings   *config.Settings
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           version.Service,
		Short:         "Favorites service with categories and tags",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		// Bare invocation serves, matching `markstash serve`.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to config file (default $CONFIG_PATH)")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) load() error {
	cfg, settings, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(settings.Log)
	if err != nil {
		return err
	}
	a.cfg, a.settings, a.logger = cfg, settings, logger
	return nil
}

func newLogger(s config.LogSettings) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if s.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if s.Level != "" {
		level, err := zap.ParseAtomicLevel(s.Level)
		if err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
		zc.Level = level
	}
	return zc.Build()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Version needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}
