package database

import (
	"gorm.io/gorm"

	"github.com/platewise/backend/internal/models"
)

// Migrate creates or updates the application tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.SavedRecipe{},
	)
}
