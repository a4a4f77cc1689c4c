package db

import (
	"fmt"
	"log/slog"

	"query-server/confs"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ConnectLocal opens the embedded SQLite store used in guest mode.
func ConnectLocal(cfg *confs.Config) (Database, error) {
	slog.Info("opening local database", "source", "db", "store", "local", "path", cfg.LocalDBPath)
	return OpenSQLite(cfg.LocalDBPath, gormConfig(cfg.DBDebug))
}

// OpenSQLite opens and migrates a SQLite database at path. ":memory:" is
// accepted and pinned to a single connection so every query sees the same data.
func OpenSQLite(path string, gcfg *gorm.Config) (Database, error) {
	if gcfg == nil {
		gcfg = gormConfig(false)
	}
	db, err := gorm.Open(sqlite.Open(path), gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	// SQLite serializes writers anyway
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &GormDatabase{DB: db}, nil
}
