package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ride_dispatch/internal/logger"
	"ride_dispatch/internal/models"
)

// InitDB opens the postgres connection described by s and migrates the schema.
func InitDB(s Settings) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(s.DatabaseDSN), &gorm.Config{
		Logger: logger.NewGormLogger(s.SlowQueryThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Ride{}, &models.RideEvent{}); err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}
	return db, nil
}
