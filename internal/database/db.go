package database

import (
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/logger"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	// TranslateError surfaces unique violations as gorm.ErrDuplicatedKey so
	// services can map races to Conflict instead of a generic 500.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.Permission{},
		&model.RolePermission{},
		&model.RefreshToken{},
		&model.Plan{},
	)
	if err != nil {
		logger.Named("database").Warn("auto-migrate failed", zap.Error(err))
	}

	return db, nil
}
