package database

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewTestDB returns a migrated and seeded in-memory SQLite database private to tb.
// It holds a single connection, so transactions run one at a time.
func NewTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(true))
	if err != nil {
		tb.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := Migrate(db); err != nil {
		tb.Fatalf("migrate test database: %v", err)
	}
	if err := SeedPlans(db); err != nil {
		tb.Fatalf("seed test database: %v", err)
	}
	return db
}
