package db

import (
	"fmt"

	"go_sitebuilder/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Models lists every persisted model, in dependency order
func Models() []interface{} {
	return []interface{}{
		&model.Company{},
		&model.CompanySettings{},
		&model.CustomDomain{},
		&model.User{},
		&model.WebsiteLayout{},
		&model.LayoutSection{},
		&model.Property{},
		&model.LayoutEvent{},
	}
}

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	logrus.Info("Starting database migration...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logrus.Infof("✓ Database migration completed successfully (%d tables)", len(models))
	return nil
}
