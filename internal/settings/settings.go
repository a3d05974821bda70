// Package settings stores the quoting defaults in a singleton row.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/laserquote/internal/pricing"
)

// Settings are the defaults applied when a quote form leaves a value empty.
type Settings struct {
	DefaultExchangeRate decimal.Decimal
	LocalCurrency       string
	ForeignCurrency     string
	HistoryLimit        int
}

// Defaults returns the values used to seed the settings row.
func Defaults() Settings {
	return Settings{
		DefaultExchangeRate: decimal.RequireFromString("6.5"),
		LocalCurrency:       "CNY",
		ForeignCurrency:     "USD",
	}
}

// Validate checks values before they are written.
func (s Settings) Validate() error {
	if !s.DefaultExchangeRate.IsPositive() {
		return fmt.Errorf("default_exchange_rate must be greater than 0")
	}
	if !pricing.InBounds(s.DefaultExchangeRate) {
		return fmt.Errorf("default_exchange_rate is out of range")
	}
	if s.LocalCurrency == "" || s.ForeignCurrency == "" {
		return fmt.Errorf("local_currency and foreign_currency are required")
	}
	if s.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be 0 or greater")
	}
	return nil
}

// Repository reads and writes the settings row.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Ensure inserts the default row if missing. It reports whether a row was inserted.
func (r *Repository) Ensure(ctx context.Context) (bool, error) {
	d := Defaults()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (id, default_exchange_rate, local_currency, foreign_currency, history_limit)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, d.DefaultExchangeRate.String(), d.LocalCurrency, d.ForeignCurrency, d.HistoryLimit)
	if err != nil {
		return false, fmt.Errorf("insert default settings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert default settings: %w", err)
	}
	return n > 0, nil
}

// Get returns the current settings, creating the default row if needed.
func (r *Repository) Get(ctx context.Context) (Settings, error) {
	if _, err := r.Ensure(ctx); err != nil {
		return Settings{}, err
	}

	var (
		s    Settings
		rate string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT default_exchange_rate, local_currency, foreign_currency, history_limit
		FROM settings
		WHERE id = 1
	`).Scan(&rate, &s.LocalCurrency, &s.ForeignCurrency, &s.HistoryLimit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Settings{}, fmt.Errorf("settings singleton not found")
		}
		return Settings{}, fmt.Errorf("query settings: %w", err)
	}

	s.DefaultExchangeRate, err = decimal.NewFromString(rate)
	if err != nil {
		return Settings{}, fmt.Errorf("parse default_exchange_rate %q: %w", rate, err)
	}
	return s, nil
}

// Update validates and stores s.
func (r *Repository) Update(ctx context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, err := r.Ensure(ctx); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE settings
		SET
			default_exchange_rate = ?,
			local_currency = ?,
			foreign_currency = ?,
			history_limit = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, s.DefaultExchangeRate.String(), s.LocalCurrency, s.ForeignCurrency, s.HistoryLimit)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
