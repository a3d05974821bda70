// Package cmd - migrate command
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/laserquote/internal/db"
	"github.com/Simplici0/laserquote/internal/migrations"
	"github.com/Simplici0/laserquote/internal/seed"
	"github.com/Simplici0/laserquote/internal/store"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and seed defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.config()

			database, err := db.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			if err := migrations.Up(database); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			stats, err := seed.Run(database, seed.Config{SeedKV: cfg.KVBackend == "" || cfg.KVBackend == store.BackendSQLite})
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database %s is up to date (%d inserted, %d updated).\n", cfg.DBPath, stats.Inserts, stats.Updates)
			return nil
		},
	}
}
