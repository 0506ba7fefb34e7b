package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// NewSQLite opens a SQLite database for local development and tests. SQLite
// allows one writer at a time, so the pool is pinned to a single connection;
// that also serializes reorders without row locks.
func NewSQLite(path string, silent bool) (*gorm.DB, error) {
	lg := newGormLogger()
	if silent {
		lg = gormLogger.Default.LogMode(gormLogger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   lg,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// IsPostgres reports whether db talks to Postgres. Row locks and isolation
// options are only issued there.
func IsPostgres(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres"
}
