package seed

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/laserquote/internal/history"
	"github.com/Simplici0/laserquote/internal/settings"
)

const emptyList = "[]"

// Config contains the values required by startup seed.
type Config struct {
	// Settings overrides the row inserted on first run. Zero value means settings.Defaults.
	Settings *settings.Settings
	// SeedKV initializes the persisted lists in kv_store. Only meaningful with the sqlite backend.
	SeedKV bool
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	s := settings.Defaults()
	if cfg.Settings != nil {
		s = *cfg.Settings
	}
	if err := s.Validate(); err != nil {
		_ = tx.Rollback()
		return Stats{}, fmt.Errorf("seed settings: %w", err)
	}
	if err := ensureSettings(tx, s, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if cfg.SeedKV {
		for _, key := range []string{history.KeyHistory, history.KeyTemplates} {
			if err := ensureKey(tx, key, &stats); err != nil {
				_ = tx.Rollback()
				return Stats{}, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureSettings(tx *sql.Tx, s settings.Settings, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM settings WHERE id = 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check settings existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO settings (id, default_exchange_rate, local_currency, foreign_currency, history_limit)
		VALUES (1, ?, ?, ?, ?)
	`, s.DefaultExchangeRate.String(), s.LocalCurrency, s.ForeignCurrency, s.HistoryLimit); err != nil {
		return fmt.Errorf("insert settings: %w", err)
	}
	stats.Inserts++
	return nil
}

// ensureKey writes an empty list under key. A blank value left by an interrupted write is
// reset as well; anything else is kept untouched.
func ensureKey(tx *sql.Tx, key string, stats *Stats) error {
	var value sql.NullString
	err := tx.QueryRow(`SELECT CAST(value AS TEXT) FROM kv_store WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.Exec(`INSERT INTO kv_store (key, value) VALUES (?, ?)`, key, []byte(emptyList)); err != nil {
			return fmt.Errorf("insert %s: %w", key, err)
		}
		stats.Inserts++
		return nil
	case err != nil:
		return fmt.Errorf("check %s existence: %w", key, err)
	}

	if value.Valid && value.String != "" {
		return nil
	}
	if _, err := tx.Exec(`
		UPDATE kv_store SET value = ?, updated_at = CURRENT_TIMESTAMP WHERE key = ?
	`, []byte(emptyList), key); err != nil {
		return fmt.Errorf("reset %s: %w", key, err)
	}
	stats.Updates++
	return nil
}
