// Package database provides gorm-backed repositories for kitchen requests,
// feedback and catalog embeddings.
package database

import (
	"fmt"

	"maitred/internal/config"
	"maitred/internal/logger"
	"maitred/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // Postgres driver
	_ "github.com/mattn/go-sqlite3"              // SQLite driver
)

// Open connects to the configured database and migrates the schema.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite3" {
		// a single connection keeps :memory: databases shared and serialises writers
		db.DB().SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("database ready (%s)", cfg.Driver)
	return db, nil
}

// Migrate creates or updates every table used by the repositories.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.KitchenRequest{},
		&models.FeedbackRecord{},
		&embeddingRow{},
	).Error
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
