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

type PlanHandler struct {
	planService service.PlanService
	users       repository.UserRepository
	roles       repository.RoleRepository
	cfg         *config.Config
}

func NewPlanHandler(planService service.PlanService, users repository.UserRepository, roles repository.RoleRepository, cfg *config.Config) *PlanHandler {
	return &PlanHandler{planService: planService, users: users, roles: roles, cfg: cfg}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *PlanHandler) RegisterRoutes(router *gin.RouterGroup) {
	plans := router.Group("/plans", middleware.Authenticate(h.users, h.cfg))
	{
		plans.GET("", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionBillingManagement, CanRead: true,
		}), h.List)
		plans.GET("/:id", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionBillingManagement, CanRead: true,
		}), h.Get)
		plans.POST("", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionBillingManagement, CanWrite: true,
		}), h.Create)
		plans.PUT("/:id", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionBillingManagement, CanWrite: true,
		}), h.Update)
		plans.DELETE("/:id", middleware.Require(h.roles, middleware.Requirement{
			Name: model.PermissionBillingManagement, CanDelete: true,
		}), h.Delete)
	}
}

// List handles GET /plans
// @Summary      List billing plans
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 10)"
// @Success      200    {object}  response.Response
// @Router       /plans [get]
func (h *PlanHandler) List(c *gin.Context) {
	result, err := h.planService.List(c.Request.Context(), query.Parse(c))
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, result)
}

// Get handles GET /plans/:id
// @Summary      Get plan by id
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.Plan}
// @Failure      404  {object}  response.Response
// @Router       /plans/{id} [get]
func (h *PlanHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}

	plan, err := h.planService.Get(c.Request.Context(), id)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, plan)
}

// Create handles POST /plans
// @Summary      Create plan
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePlanRequest  true  "Create plan payload"
// @Success      201      {object}  response.Response{data=model.Plan}
// @Failure      409      {object}  response.Response
// @Router       /plans [post]
func (h *PlanHandler) Create(c *gin.Context) {
	var req service.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.AbortWithError(c, apperr.Validation("errors.invalid_payload").WithCause(err))
		return
	}

	plan, err := h.planService.Create(c.Request.Context(), req)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, plan)
}

// Update handles PUT /plans/:id
// @Summary      Update plan
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdatePlanRequest  true  "Update plan payload"
// @Success      200      {object}  response.Response{data=model.Plan}
// @Failure      404      {object}  response.Response
// @Router       /plans/{id} [put]
func (h *PlanHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}

	var req service.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.AbortWithError(c, apperr.Validation("errors.invalid_payload").WithCause(err))
		return
	}

	plan, err := h.planService.Update(c.Request.Context(), id, req)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, plan)
}

// Delete handles DELETE /plans/:id
// @Summary      Delete plan
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /plans/{id} [delete]
func (h *PlanHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}

	if err := h.planService.Delete(c.Request.Context(), id); err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}
