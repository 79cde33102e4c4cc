package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
)

// PermissionRelations is the eager-load path the resolver and the guard need:
// roles, each role's permission links, and each link's permission.
var PermissionRelations = []string{"Roles", "Roles.RolePermissions", "Roles.RolePermissions.Permission"}

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	CrudStore[model.User]
	FindByEmail(ctx context.Context, email string, relations ...string) (*model.User, error)
	ReplaceRoles(ctx context.Context, user *model.User, roles []model.Role) error
}

type userRepository struct {
	*Store[model.User]
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{Store: NewStore[model.User](db), db: db}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string, relations ...string) (*model.User, error) {
	db := GetDB(ctx, r.db)
	for _, relation := range relations {
		db = db.Preload(relation)
	}
	var user model.User
	if err := db.First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ReplaceRoles(ctx context.Context, user *model.User, roles []model.Role) error {
	return GetDB(ctx, r.db).Model(user).Association("Roles").Replace(roles)
}
