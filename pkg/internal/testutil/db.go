package testutil

import (
	"testing"

	"github.com/Basil-Gomaa/AZTrackonomy/pkg/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB opens an in-memory sqlite database with the full schema and
// returns a Store bound to it. The connection is closed on test cleanup.
func SetupTestDB(t *testing.T) *db.Store {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access underlying DB: %v", err)
	}

	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}
	})

	return db.NewStore(gdb)
}
