package database

import (
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// Migrate creates or updates the tables owned by the grading pipeline.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Assignment{},
		&models.GradedResult{},
		&models.Certificate{},
		&models.ActivityLog{},
	)
}
