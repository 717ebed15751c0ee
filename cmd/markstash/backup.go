package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/HerbHall/markstash/internal/backup"
)

func newBackupCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a tar.gz archive of the database and config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				output = fmt.Sprintf("markstash-backup-%s.tar.gz", time.Now().Format("20060102-150405"))
			}
			if err := backup.Backup(cmd.Context(), a.settings.Database.Path, a.cfg.ConfigFileUsed(), output); err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup created: %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default markstash-backup-{timestamp}.tar.gz)")
	return cmd
}

func newRestoreCmd(_ *app) *cobra.Command {
	var (
		input   string
		dataDir string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Extract a backup archive into a data directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := backup.Restore(cmd.Context(), input, dataDir, force); err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restore complete: files restored to %s\n", dataDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "backup archive to restore")
	cmd.Flags().StringVar(&dataDir, "data-dir", ".", "target directory for restored files")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
