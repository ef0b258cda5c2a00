package storage

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"photopipe-server-go/internal/platform/config"
	"photopipe-server-go/internal/platform/errors"
	"photopipe-server-go/internal/platform/logging"
)

// InitDB opens the sqlite database and migrates the schema.
func InitDB(cfg config.DatabaseConfig, logger *logging.Logger) (*gorm.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = "data/photopipe.db"
	}
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.KindStorage, "storage.init", "create database directory", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.init", "open database", err)
	}

	if err := db.AutoMigrate(&JobRecord{}); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.init", "migrate schema", err)
	}
	logger.Info("database ready", "dsn", dsn)
	return db, nil
}
