package settings

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/laserquote/internal/db"
	"github.com/Simplici0/laserquote/internal/migrations"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

func TestGetCreatesDefaults(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	s, err := repo.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !s.DefaultExchangeRate.Equal(decimal.RequireFromString("6.5")) {
		t.Fatalf("default rate = %s", s.DefaultExchangeRate)
	}
	if s.LocalCurrency != "CNY" || s.ForeignCurrency != "USD" || s.HistoryLimit != 0 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	inserted, err := repo.Ensure(ctx)
	if err != nil || !inserted {
		t.Fatalf("first Ensure = %v, %v", inserted, err)
	}
	inserted, err = repo.Ensure(ctx)
	if err != nil || inserted {
		t.Fatalf("second Ensure = %v, %v", inserted, err)
	}
}

func TestUpdateRoundTrips(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	want := Settings{
		DefaultExchangeRate: decimal.RequireFromString("7.12"),
		LocalCurrency:       "CNY",
		ForeignCurrency:     "EUR",
		HistoryLimit:        50,
	}
	if err := repo.Update(ctx, want); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.DefaultExchangeRate.Equal(want.DefaultExchangeRate) || got.ForeignCurrency != "EUR" || got.HistoryLimit != 50 {
		t.Fatalf("unexpected settings: %+v", got)
	}
}

func TestUpdateRejectsInvalidValues(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	bad := Defaults()
	bad.DefaultExchangeRate = decimal.Zero
	if err := repo.Update(ctx, bad); err == nil {
		t.Fatalf("expected error for zero exchange rate")
	}

	bad = Defaults()
	bad.DefaultExchangeRate = decimal.New(1, 2000000)
	if err := repo.Update(ctx, bad); err == nil {
		t.Fatalf("expected error for oversized exchange rate")
	}

	bad = Defaults()
	bad.HistoryLimit = -1
	if err := repo.Update(ctx, bad); err == nil {
		t.Fatalf("expected error for negative history limit")
	}
}
