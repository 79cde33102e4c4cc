package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
)

// RoleRepository defines the interface for data access of roles, permissions
// and the grant links between them.
type RoleRepository interface {
	CrudStore[model.Role]
	FindByName(ctx context.Context, name string) (*model.Role, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	FindPermissionByName(ctx context.Context, name string) (*model.Permission, error)
	CreatePermission(ctx context.Context, perm *model.Permission) error
	FindLink(ctx context.Context, roleID, permissionID uint) (*model.RolePermission, error)
	SaveLink(ctx context.Context, link *model.RolePermission) error
	DeleteLink(ctx context.Context, link *model.RolePermission) error
	// LinksForRoles loads the grant links (with permissions) for a set of
	// roles in one query; the guard calls this live on every admission check.
	LinksForRoles(ctx context.Context, roleIDs []uint) ([]model.RolePermission, error)
}

type roleRepository struct {
	*Store[model.Role]
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{Store: NewStore[model.Role](db), db: db}
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("name asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) FindPermissionByName(ctx context.Context, name string) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *roleRepository) CreatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Create(perm).Error
}

func (r *roleRepository) FindLink(ctx context.Context, roleID, permissionID uint) (*model.RolePermission, error) {
	var link model.RolePermission
	err := GetDB(ctx, r.db).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *roleRepository) SaveLink(ctx context.Context, link *model.RolePermission) error {
	return GetDB(ctx, r.db).Save(link).Error
}

func (r *roleRepository) DeleteLink(ctx context.Context, link *model.RolePermission) error {
	return GetDB(ctx, r.db).Delete(link).Error
}

func (r *roleRepository) LinksForRoles(ctx context.Context, roleIDs []uint) ([]model.RolePermission, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var links []model.RolePermission
	err := GetDB(ctx, r.db).
		Preload("Permission").
		Where("role_id IN ?", roleIDs).
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}
