package handler

import (
	"net/http"

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

type RoleHandler struct {
	roleService service.RoleService
	users       repository.UserRepository
	roles       repository.RoleRepository
	cfg         *config.Config
}

func NewRoleHandler(roleService service.RoleService, users repository.UserRepository, roles repository.RoleRepository, cfg *config.Config) *RoleHandler {
	return &RoleHandler{roleService: roleService, users: users, roles: roles, cfg: cfg}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	authn := middleware.Authenticate(h.users, h.cfg)

	roles := router.Group("/roles", authn)
	{
		roles.GET("", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionRoleManagement, CanRead: true,
		}), h.List)
		roles.GET("/:id", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionRoleManagement, CanRead: true,
		}), h.Get)
		roles.POST("", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionRoleManagement, CanWrite: true,
		}), h.Create)
		roles.PUT("/:id", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionRoleManagement, CanWrite: true,
		}), h.Update)
		roles.DELETE("/:id", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionRoleManagement, CanDelete: true,
		}), h.Delete)
		roles.PUT("/:id/permissions", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionRoleManagement, CanWrite: true,
		}), h.SetPermission)
	}

	router.GET("/permissions", authn, middleware.Require(h.roles, middleware.Requirement{
		Name: model.PermissionRoleManagement, CanRead: true,
	}), h.ListPermissions)
}

// List handles GET /roles
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 10)"
// @Param        sort   query     string  false  "Sort fields, e.g. name,-id"
// @Success      200    {object}  response.Response
// @Router       /roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	result, err := h.roleService.List(c.Request.Context(), query.Parse(c))
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, result)
}

// Get handles GET /roles/:id
// @Summary      Get role by id
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.Role}
// @Failure      404  {object}  response.Response
// @Router       /roles/{id} [get]
func (h *RoleHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}

	role, err := h.roleService.Get(c.Request.Context(), id)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, role)
}

// Create handles POST /roles
// @Summary      Create role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRoleRequest  true  "Create role payload"
// @Success      201      {object}  response.Response{data=model.Role}
// @Failure      409      {object}  response.Response
// @Router       /roles [post]
func (h *RoleHandler) Create(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.AbortWithError(c, apperr.Validation("errors.invalid_payload").WithCause(err))
		return
	}

	role, err := h.roleService.Create(c.Request.Context(), req)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, role)
}

// Update handles PUT /roles/:id
// @Summary      Update role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateRoleRequest  true  "Update role payload"
// @Success      200      {object}  response.Response{data=model.Role}
// @Failure      404      {object}  response.Response
// @Router       /roles/{id} [put]
func (h *RoleHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}

	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.AbortWithError(c, apperr.Validation("errors.invalid_payload").WithCause(err))
		return
	}

	role, err := h.roleService.Update(c.Request.Context(), id, req)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, role)
}

// Delete handles DELETE /roles/:id
// @Summary      Delete role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /roles/{id} [delete]
func (h *RoleHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}

	if err := h.roleService.Delete(c.Request.Context(), id); err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

// SetPermission handles PUT /roles/:id/permissions
// @Summary      Set role permission grants
// @Description  Upserts the read/write/delete flags for one (role, permission) pair; all flags false removes the grant
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SetRolePermissionRequest  true  "Grant payload"
// @Success      200      {object}  response.Response{data=model.Role}
// @Failure      404      {object}  response.Response
// @Router       /roles/{id}/permissions [put]
func (h *RoleHandler) SetPermission(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}

	var req service.SetRolePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.AbortWithError(c, apperr.Validation("errors.invalid_payload").WithCause(err))
		return
	}

	role, err := h.roleService.SetPermission(c.Request.Context(), id, req)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, role)
}

// ListPermissions handles GET /permissions
// @Summary      List permissions
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Permission}
// @Router       /permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, perms)
}
