package database

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestNewDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "nutrision.db")
	logger := zaptest.NewLogger(t)

	db, err := NewDB(path, logger)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}

	for _, table := range []string{"meal_plans", "sessions", "execution_metrics"} {
		var name string
		err := db.SQL.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %s to exist: %v", table, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopening an up-to-date database is a no-op migration.
	db, err = NewDB(path, logger)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	db.Close()
}
