package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"drawer-go/internal/config"
	"drawer-go/internal/drawer"
)

// Database is a drawer.Store that can also bring its own schema up to date.
type Database interface {
	drawer.Store
	MigrateUp() error
}

// NewDatabaseFromConfig creates a Database implementation based on the database config type.
// An in-memory database starts empty, so it is migrated immediately.
func NewDatabaseFromConfig(ctx context.Context, cfg config.DatabaseConfig) (Database, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		db, err := NewSQLiteDatabase(filepath.Join(cfg.DataDir, "drawer.db"))
		if err != nil {
			return nil, err
		}
		return db, nil
	case "memory":
		db, err := NewSQLiteDatabase(":memory:")
		if err != nil {
			return nil, err
		}
		if err := db.MigrateUp(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating in-memory database: %w", err)
		}
		return db, nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("dsn required for postgres database")
		}
		db, err := NewPostgresDatabase(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
