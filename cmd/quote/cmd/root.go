// Package cmd provides the CLI commands for laserquote.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/laserquote/internal/app"
	"github.com/Simplici0/laserquote/internal/config"
	"github.com/Simplici0/laserquote/internal/logging"
	"github.com/Simplici0/laserquote/internal/quote"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	dbPath      string
	catalogPath string
	verbose     bool
}

// Execute runs the CLI
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "laserquote",
		Short: "Quote laser cutting machines",
		Long: `laserquote prices laser machines with quantity tiers, water coolers, accessories,
shipping and fees, and reports the total in the local and a foreign currency.

Examples:
  laserquote catalog
  laserquote calc --machine co2/1390/100w --qty 10 --cooler cw5000 --accessory rotary
  laserquote calc --machine co2/1390/100w --format json --save
  laserquote history list`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := logging.DefaultConfig()
			cfg.Level = "warn"
			if opts.verbose {
				cfg.Level = "debug"
			}
			return logging.Initialize(cfg)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database file (default from DB_PATH)")
	root.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "HCL catalog file (default from CATALOG_PATH, then the built-in catalog)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(newCalcCmd(opts))
	root.AddCommand(newCatalogCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newMigrateCmd(opts))

	return root
}

func (o *rootOptions) config() config.Config {
	cfg := config.Load()
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.catalogPath != "" {
		cfg.CatalogPath = o.catalogPath
	}
	return cfg
}

// open builds the application for a command. Outside dev the schema must already exist,
// see the migrate command.
func (o *rootOptions) open(ctx context.Context) (*app.App, error) {
	return app.Open(ctx, o.config(), app.Options{Logger: logging.With(zap.String("component", "cli"))})
}

// printNotifier writes notifications as one line each.
type printNotifier struct {
	w io.Writer
}

func (p printNotifier) Notify(_ context.Context, n quote.Notification) {
	fmt.Fprintf(p.w, "%s: %s\n", n.Level, n.Message)
}
