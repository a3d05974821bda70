package migrations

import (
	"path/filepath"
	"testing"

	"github.com/Simplici0/laserquote/internal/db"
)

func TestUpCreatesTablesAndIsRepeatable(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	for i := 0; i < 2; i++ {
		if err := Up(database); err != nil {
			t.Fatalf("Up (run %d): %v", i, err)
		}
	}

	for _, table := range []string{"settings", "kv_store"} {
		var n int
		err := database.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
		if err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}

	if _, err := database.Exec(`INSERT INTO settings (id) VALUES (2)`); err == nil {
		t.Fatalf("expected settings to accept only the singleton row")
	}
}
