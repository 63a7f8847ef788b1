package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/models"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

// Migrate creates or updates the four record collections.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Application{},
		&models.Message{},
	)
}
