package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/logger"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/repository"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/apperr"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/query"
)

// Broadcaster pushes account-change events to connected websocket clients.
type Broadcaster interface {
	BroadcastEvent(eventType string, data interface{})
}

// --- DTOs ---

type CreateUserRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	Name       string `json:"name" binding:"required"`
	IsVerified bool   `json:"is_verified"`
}

type UpdateUserRequest struct {
	Name       string `json:"name"`
	IsVerified *bool  `json:"is_verified"`
	RoleIDs    []uint `json:"role_ids"`
}

type ListResult[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
}

// --- Interface ---

// UserService provides administrative CRUD over users.
type UserService interface {
	Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	List(ctx context.Context, params query.Params) (*ListResult[UserResponse], error)
	Get(ctx context.Context, id uint) (*UserResponse, error)
	Update(ctx context.Context, id uint, req UpdateUserRequest) (*UserResponse, error)
	Delete(ctx context.Context, id uint) error
}

type userService struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	events Broadcaster
	log    *zap.Logger
}

var userSortFields = []string{"id", "email", "name"}
var userSearchFields = []string{"email", "name"}

func NewUserService(users repository.UserRepository, roles repository.RoleRepository, events Broadcaster) UserService {
	return &userService{users: users, roles: roles, events: events, log: logger.Named("users")}
}

// --- Implementation ---

func (s *userService) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Conflict("errors.duplicate_email", apperr.Detail{
			Path:    "email",
			Message: "Email " + req.Email + " already exists",
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:      req.Email,
		Password:   string(hash),
		Name:       req.Name,
		IsVerified: req.IsVerified,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A race past the FindByEmail check lands on the unique index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("errors.duplicate_email", apperr.Detail{
				Path:    "email",
				Message: "Email " + req.Email + " already exists",
			}).WithCause(err)
		}
		return nil, err
	}

	s.log.Info("user created", zap.Uint("id", user.ID), zap.String("email", user.Email))
	s.broadcast("user.created", user.ID)
	return toUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, params query.Params) (*ListResult[UserResponse], error) {
	opts, err := query.Build(params, userSortFields, userSearchFields)
	if err != nil {
		return nil, err
	}

	users, total, err := s.users.List(ctx, opts, "Roles")
	if err != nil {
		return nil, err
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, *toUserResponse(&users[i]))
	}
	return &ListResult[UserResponse]{Data: res, Total: total}, nil
}

func (s *userService) Get(ctx context.Context, id uint) (*UserResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, id uint, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.IsVerified != nil {
		user.IsVerified = *req.IsVerified
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	if req.RoleIDs != nil {
		roles := make([]model.Role, 0, len(req.RoleIDs))
		for _, roleID := range req.RoleIDs {
			role, err := s.roles.FindByID(ctx, roleID)
			if err != nil {
				return nil, apperr.NotFound("errors.not_found", apperr.Detail{
					Path:    "role_ids",
					Message: "Role not found",
				}).WithCause(err)
			}
			roles = append(roles, *role)
		}
		if err := s.users.ReplaceRoles(ctx, user, roles); err != nil {
			return nil, err
		}
		user.Roles = roles
	}

	s.log.Info("user updated", zap.Uint("id", id))
	s.broadcast("user.updated", id)
	return toUserResponse(user), nil
}

func (s *userService) Delete(ctx context.Context, id uint) error {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user); err != nil {
		return err
	}

	s.log.Info("user deleted", zap.Uint("id", id))
	s.broadcast("user.deleted", id)
	return nil
}

func (s *userService) findUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id, "Roles")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("errors.not_found", apperr.Detail{
				Path:    "id",
				Message: "User not found",
			})
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) broadcast(eventType string, id uint) {
	if s.events != nil {
		s.events.BroadcastEvent(eventType, map[string]uint{"id": id})
	}
}
