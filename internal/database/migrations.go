package database

import (
	"gorm.io/gorm"

	"github.com/okastudio/platewatch/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Recipe{},
		&models.Report{},
		&models.Notification{},
	); err != nil {
		return err
	}
	return createPartialIndexes(db)
}

// createPartialIndexes adds the indexes gorm struct tags cannot express.
// One PENDING report per reporter and target: the in-process target lock
// covers a single instance, this index is the cross-instance backstop the
// duplicate-key handling in the services maps to DuplicateReport. MySQL has
// no partial indexes, so those deployments rely on the lock alone.
func createPartialIndexes(db *gorm.DB) error {
	if db.Dialector.Name() == "mysql" {
		return nil
	}
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reports_pending_reporter_target
		 ON reports (reporter_id, target_key) WHERE status = 'PENDING'`,
	).Error
}

// SeedData inserts the bootstrap moderator account so a fresh install can
// review reports before any directory sync has run.
func SeedData(db *gorm.DB) error {
	admin := models.User{
		BaseModel:   models.BaseModel{ID: "admin"},
		Username:    "admin",
		DisplayName: "Administrator",
		Email:       "admin@localhost",
		Role:        models.RoleAdmin,
		IsActive:    true,
	}

	return db.
		Where(models.User{BaseModel: models.BaseModel{ID: admin.ID}}).
		Attrs(admin).
		FirstOrCreate(&models.User{}).Error
}
