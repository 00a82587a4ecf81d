package database

import (
	"gorm.io/gorm"

	"github.com/giftloop/giftloop/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Participant{},
		&models.Exchange{},
		&models.Enrollment{},
		&models.Draw{},
	)
}
