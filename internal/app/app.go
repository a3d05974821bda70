// Package app wires configuration into the storage, catalog and quote service shared by
// the server and the CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Simplici0/laserquote/internal/catalog"
	"github.com/Simplici0/laserquote/internal/config"
	"github.com/Simplici0/laserquote/internal/db"
	"github.com/Simplici0/laserquote/internal/history"
	"github.com/Simplici0/laserquote/internal/migrations"
	"github.com/Simplici0/laserquote/internal/quote"
	"github.com/Simplici0/laserquote/internal/seed"
	"github.com/Simplici0/laserquote/internal/settings"
	"github.com/Simplici0/laserquote/internal/store"
)

// App holds the opened dependencies. Close releases them.
type App struct {
	DB       *sql.DB
	Catalog  *catalog.Catalog
	KV       store.KV
	Settings *settings.Repository
	Quotes   *quote.Service
}

// Options tweaks Open beyond what Config carries.
type Options struct {
	// Migrate runs the embedded migrations regardless of the environment.
	Migrate bool
	Logger  *zap.Logger
	// Observers are registered on the quote service after the log observer.
	Observers []quote.Observer
}

// Open opens the database, applies migrations in dev, seeds defaults, loads the catalog and
// builds the quote service.
func Open(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{DB: database}
	if err := a.init(ctx, cfg, opts, logger); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, cfg config.Config, opts Options, logger *zap.Logger) error {
	if cfg.IsDev() || opts.Migrate {
		if err := migrations.Up(a.DB); err != nil {
			return fmt.Errorf("run database migrations: %w", err)
		}
	}

	stats, err := seed.Run(a.DB, seed.Config{SeedKV: cfg.KVBackend == "" || cfg.KVBackend == store.BackendSQLite})
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}
	logger.Info("seed_complete", zap.Int("inserts", stats.Inserts), zap.Int("updates", stats.Updates))

	a.Catalog, err = catalog.Open(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	for _, w := range a.Catalog.Warnings() {
		logger.Warn("catalog_warning", zap.String("problem", w))
	}

	storeOpts := cfg.StoreOptions()
	storeOpts.DB = a.DB
	a.KV, err = store.Open(ctx, storeOpts)
	if err != nil {
		return fmt.Errorf("open kv store: %w", err)
	}
	logger.Info("kv_store_ready", zap.String("backend", storeOpts.Backend))

	a.Settings = settings.NewRepository(a.DB)

	serviceOpts := []quote.Option{
		quote.WithSettings(a.Settings),
		quote.WithHistoryLimit(cfg.HistoryLimit),
		quote.WithLogger(logger),
		quote.WithObserver(quote.LogObserver{Logger: logger}),
	}
	for _, o := range opts.Observers {
		serviceOpts = append(serviceOpts, quote.WithObserver(o))
	}
	a.Quotes = quote.NewService(a.Catalog, history.NewRepository(a.KV), serviceOpts...)
	return nil
}

// Close releases the kv store and the database.
func (a *App) Close() error {
	var firstErr error
	if c, ok := a.KV.(io.Closer); ok {
		if err := c.Close(); err != nil {
			firstErr = err
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
