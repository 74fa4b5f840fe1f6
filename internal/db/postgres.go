/**
 * @description
 * PostgreSQL connection manager using GORM.
 * Handles connection pooling, initialization and schema migration.
 *
 * @dependencies
 * - gorm.io/gorm: ORM library
 * - gorm.io/driver/postgres: Postgres driver
 */

package db

import (
	"fmt"
	"time"

	"github.com/ktcapester/glimpse-sub000/internal/config"
	"github.com/ktcapester/glimpse-sub000/internal/logger"
	"github.com/ktcapester/glimpse-sub000/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// ConnectPostgres initializes the PostgreSQL connection
func ConnectPostgres(cfg *config.Config) (*gorm.DB, error) {
	gormLogLevel := gormLogger.Error
	if cfg.Server.Env == "development" {
		gormLogLevel = gormLogger.Info
	} else if cfg.Server.Env == "staging" {
		gormLogLevel = gormLogger.Warn
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DB.URL,
		PreferSimpleProtocol: true, // no prepared statements behind poolers
	}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if cfg.DB.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	logger.Info("✅ Connected to PostgreSQL")
	return db, nil
}

// Migrate creates or updates the tables backing users, cards and lists
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Card{}, &models.ListItem{}); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}
	return nil
}
