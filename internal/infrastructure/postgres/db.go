package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fittrack/backend/internal/domain"
)

// Open connects to the database and migrates the schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the food_master and food_entries tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.FoodItem{}, &domain.FoodEntry{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}
