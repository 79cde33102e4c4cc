package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/config"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/middleware"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/repository"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/service"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/apperr"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/query"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/response"
)

type UserHandler struct {
	userService service.UserService
	users       repository.UserRepository
	roles       repository.RoleRepository
	cfg         *config.Config
}

func NewUserHandler(userService service.UserService, users repository.UserRepository, roles repository.RoleRepository, cfg *config.Config) *UserHandler {
	return &UserHandler{userService: userService, users: users, roles: roles, cfg: cfg}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users", middleware.Authenticate(h.users, h.cfg))
	{
		users.GET("", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionUserManagement, CanRead: true,
		}), h.List)
		users.GET("/:id", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionUserManagement, CanRead: true,
		}), h.Get)
		users.POST("", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionUserManagement, CanWrite: true,
		}), h.Create)
		users.PUT("/:id", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionUserManagement, CanWrite: true,
		}), h.Update)
		users.DELETE("/:id", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionUserManagement, CanDelete: true,
		}), h.Delete)
	}
}

// List handles GET /users
// @Summary      List users
// @Description  Paginated user listing with keyword search, filter and sort
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Items per page (default 10)"
// @Param        keyword  query     string  false  "Keyword matched against email and name"
// @Param        sort     query     string  false  "Sort fields, e.g. name,-createdAt"
// @Param        filter   query     string  false  "JSON filter object"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	result, err := h.userService.List(c.Request.Context(), query.Parse(c))
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, result)
}

// Get handles GET /users/:id
// @Summary      Get user by id
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, user)
}

// Create handles POST /users
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "Create user payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      409      {object}  response.Response
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.AbortWithError(c, apperr.Validation("errors.invalid_payload").WithCause(err))
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, user)
}

// Update handles PUT /users/:id
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateUserRequest  true  "Update user payload"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      404      {object}  response.Response
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.AbortWithError(c, apperr.Validation("errors.invalid_payload").WithCause(err))
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, req)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, user)
}

// Delete handles DELETE /users/:id
// @Summary      Delete user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperr.Validation("errors.invalid_id", apperr.Detail{
			Path:    "id",
			Message: "ID must be a positive integer",
		}).WithCause(err)
	}
	return uint(id), nil
}
