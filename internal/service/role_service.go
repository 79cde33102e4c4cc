package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/logger"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/repository"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/apperr"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/query"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name string `json:"name" binding:"required"`
}

type UpdateRoleRequest struct {
	Name string `json:"name" binding:"required"`
}

// SetRolePermissionRequest upserts the grant flags for one (role, permission)
// pair. All three flags false removes the link: absence of a row means no
// grant.
type SetRolePermissionRequest struct {
	Permission string `json:"permission" binding:"required"`
	CanRead    bool   `json:"can_read"`
	CanWrite   bool   `json:"can_write"`
	CanDelete  bool   `json:"can_delete"`
}

// --- Interface ---

// RoleService provides role CRUD and grant management.
type RoleService interface {
	Create(ctx context.Context, req CreateRoleRequest) (*model.Role, error)
	List(ctx context.Context, params query.Params) (*ListResult[model.Role], error)
	Get(ctx context.Context, id uint) (*model.Role, error)
	Update(ctx context.Context, id uint, req UpdateRoleRequest) (*model.Role, error)
	Delete(ctx context.Context, id uint) error
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	SetPermission(ctx context.Context, roleID uint, req SetRolePermissionRequest) (*model.Role, error)
	SeedDefaults(ctx context.Context) error
}

type roleService struct {
	roles  repository.RoleRepository
	events Broadcaster
	log    *zap.Logger
}

var roleSortFields = []string{"id", "name"}
var roleSearchFields = []string{"name"}

func NewRoleService(roles repository.RoleRepository, events Broadcaster) RoleService {
	return &roleService{roles: roles, events: events, log: logger.Named("roles")}
}

// --- Implementation ---

func (s *roleService) Create(ctx context.Context, req CreateRoleRequest) (*model.Role, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("errors.invalid_role_name", apperr.Detail{
			Path:    "name",
			Message: "Role name must not be empty",
		})
	}

	if _, err := s.roles.FindByName(ctx, req.Name); err == nil {
		return nil, apperr.Conflict("errors.duplicate_role", apperr.Detail{
			Path:    "name",
			Message: "Role name " + req.Name + " already exists",
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role := &model.Role{Name: req.Name}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}

	s.log.Info("role created", zap.Uint("id", role.ID), zap.String("name", role.Name))
	return role, nil
}

func (s *roleService) List(ctx context.Context, params query.Params) (*ListResult[model.Role], error) {
	opts, err := query.Build(params, roleSortFields, roleSearchFields)
	if err != nil {
		return nil, err
	}

	roles, total, err := s.roles.List(ctx, opts, "RolePermissions", "RolePermissions.Permission")
	if err != nil {
		return nil, err
	}
	return &ListResult[model.Role]{Data: roles, Total: total}, nil
}

func (s *roleService) Get(ctx context.Context, id uint) (*model.Role, error) {
	return s.findRole(ctx, id)
}

func (s *roleService) Update(ctx context.Context, id uint, req UpdateRoleRequest) (*model.Role, error) {
	role, err := s.findRole(ctx, id)
	if err != nil {
		return nil, err
	}

	role.Name = req.Name
	if err := s.roles.Save(ctx, role); err != nil {
		return nil, err
	}

	s.log.Info("role updated", zap.Uint("id", id))
	s.broadcast("role.updated", id)
	return role, nil
}

func (s *roleService) Delete(ctx context.Context, id uint) error {
	role, err := s.findRole(ctx, id)
	if err != nil {
		return err
	}
	if err := s.roles.Delete(ctx, role); err != nil {
		return err
	}

	s.log.Info("role deleted", zap.Uint("id", id))
	s.broadcast("role.deleted", id)
	return nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	return s.roles.ListPermissions(ctx)
}

func (s *roleService) SetPermission(ctx context.Context, roleID uint, req SetRolePermissionRequest) (*model.Role, error) {
	role, err := s.findRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	perm, err := s.roles.FindPermissionByName(ctx, req.Permission)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("errors.not_found", apperr.Detail{
				Path:    "permission",
				Message: "Permission " + req.Permission + " not found",
			})
		}
		return nil, err
	}

	link, err := s.roles.FindLink(ctx, role.ID, perm.ID)
	switch {
	case err == nil:
		if !req.CanRead && !req.CanWrite && !req.CanDelete {
			if err := s.roles.DeleteLink(ctx, link); err != nil {
				return nil, err
			}
		} else {
			link.CanRead = req.CanRead
			link.CanWrite = req.CanWrite
			link.CanDelete = req.CanDelete
			if err := s.roles.SaveLink(ctx, link); err != nil {
				return nil, err
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if !req.CanRead && !req.CanWrite && !req.CanDelete {
			break // nothing to grant, nothing stored
		}
		link = &model.RolePermission{
			RoleID:       role.ID,
			PermissionID: perm.ID,
			CanRead:      req.CanRead,
			CanWrite:     req.CanWrite,
			CanDelete:    req.CanDelete,
		}
		if err := s.roles.SaveLink(ctx, link); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.log.Info("role grants updated",
		zap.Uint("role_id", roleID),
		zap.String("permission", req.Permission))
	s.broadcast("role.updated", roleID)
	return s.findRole(ctx, roleID)
}

// SeedDefaults creates the default roles, the permission enumeration and the
// admin grants if not already present. Safe to run on every startup.
func (s *roleService) SeedDefaults(ctx context.Context) error {
	for _, name := range []string{"admin", "user", RoleStreamer} {
		if _, err := s.roles.FindByName(ctx, name); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.roles.Create(ctx, &model.Role{Name: name}); err != nil {
			return err
		}
		s.log.Info("seeded role", zap.String("name", name))
	}

	defaults := []model.Permission{
		{Name: model.PermissionUserManagement, Description: "Permission to manage user data"},
		{Name: model.PermissionRoleManagement, Description: "Permission to manage role data"},
		{Name: model.PermissionBillingManagement, Description: "Permission to manage billing data"},
	}
	for i := range defaults {
		perm := &defaults[i]
		existing, err := s.roles.FindPermissionByName(ctx, perm.Name)
		if err == nil {
			perm.ID = existing.ID
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.roles.CreatePermission(ctx, perm); err != nil {
			return err
		}
		s.log.Info("seeded permission", zap.String("name", perm.Name))
	}

	admin, err := s.roles.FindByName(ctx, "admin")
	if err != nil {
		return err
	}
	for _, perm := range defaults {
		if _, err := s.roles.FindLink(ctx, admin.ID, perm.ID); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		link := &model.RolePermission{
			RoleID:       admin.ID,
			PermissionID: perm.ID,
			CanRead:      true,
			CanWrite:     true,
			CanDelete:    true,
		}
		if err := s.roles.SaveLink(ctx, link); err != nil {
			return err
		}
	}

	return nil
}

func (s *roleService) findRole(ctx context.Context, id uint) (*model.Role, error) {
	role, err := s.roles.FindByID(ctx, id, "RolePermissions", "RolePermissions.Permission")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("errors.not_found", apperr.Detail{
				Path:    "id",
				Message: "Role not found",
			})
		}
		return nil, err
	}
	return role, nil
}

func (s *roleService) broadcast(eventType string, id uint) {
	if s.events != nil {
		s.events.BroadcastEvent(eventType, map[string]uint{"id": id})
	}
}
