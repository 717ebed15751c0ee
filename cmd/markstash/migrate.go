package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HerbHall/markstash/internal/services"
	"github.com/HerbHall/markstash/internal/store"
)

func newMigrateCmd(a *app) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if status {
				db, err := store.New(a.settings.Database.Path)
				if err != nil {
					return err
				}
				defer db.Close()
				return printStatus(cmd, db)
			}

			db, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", a.settings.Database.Path)
			return printStatus(cmd, db)
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "list applied and pending migrations without applying")
	return cmd
}

func printStatus(cmd *cobra.Command, db *store.SQLiteStore) error {
	applied, err := db.AppliedVersions(cmd.Context(), services.SchemaScope)
	if err != nil {
		return err
	}
	at := make(map[int]string, len(applied))
	for _, m := range applied {
		at[m.Version] = m.AppliedAt
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tAPPLIED\tDESCRIPTION")
	for _, m := range services.SchemaMigrations() {
		when, ok := at[m.Version]
		if !ok {
			when = "pending"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Version, when, m.Description)
	}
	return tw.Flush()
}
