package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/logger"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/repository"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/apperr"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/query"
)

// --- DTOs ---

type CreatePlanRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	Interval    string `json:"interval"`
}

type UpdatePlanRequest struct {
	Description string `json:"description"`
	Price       string `json:"price"`
	Interval    string `json:"interval"`
	IsActive    *bool  `json:"is_active"`
}

// --- Interface ---

// PlanService manages billing plans, gated by BILLING_MANAGEMENT.
type PlanService interface {
	Create(ctx context.Context, req CreatePlanRequest) (*model.Plan, error)
	List(ctx context.Context, params query.Params) (*ListResult[model.Plan], error)
	Get(ctx context.Context, id uint) (*model.Plan, error)
	Update(ctx context.Context, id uint, req UpdatePlanRequest) (*model.Plan, error)
	Delete(ctx context.Context, id uint) error
}

type planService struct {
	plans repository.PlanRepository
	log   *zap.Logger
}

var planSortFields = []string{"id", "name", "price"}
var planSearchFields = []string{"name"}

func NewPlanService(plans repository.PlanRepository) PlanService {
	return &planService{plans: plans, log: logger.Named("plans")}
}

// --- Implementation ---

func (s *planService) Create(ctx context.Context, req CreatePlanRequest) (*model.Plan, error) {
	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, err
	}

	if _, err := s.plans.FindByName(ctx, req.Name); err == nil {
		return nil, apperr.Conflict("errors.duplicate_plan", apperr.Detail{
			Path:    "name",
			Message: "Plan name " + req.Name + " already exists",
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	interval := req.Interval
	if interval == "" {
		interval = "month"
	}

	plan := &model.Plan{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Interval:    interval,
		IsActive:    true,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}

	s.log.Info("plan created", zap.Uint("id", plan.ID), zap.String("name", plan.Name))
	return plan, nil
}

func (s *planService) List(ctx context.Context, params query.Params) (*ListResult[model.Plan], error) {
	opts, err := query.Build(params, planSortFields, planSearchFields)
	if err != nil {
		return nil, err
	}

	plans, total, err := s.plans.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &ListResult[model.Plan]{Data: plans, Total: total}, nil
}

func (s *planService) Get(ctx context.Context, id uint) (*model.Plan, error) {
	return s.findPlan(ctx, id)
}

func (s *planService) Update(ctx context.Context, id uint, req UpdatePlanRequest) (*model.Plan, error) {
	plan, err := s.findPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		plan.Description = req.Description
	}
	if req.Price != "" {
		price, err := parsePrice(req.Price)
		if err != nil {
			return nil, err
		}
		plan.Price = price
	}
	if req.Interval != "" {
		plan.Interval = req.Interval
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, err
	}

	s.log.Info("plan updated", zap.Uint("id", id))
	return plan, nil
}

func (s *planService) Delete(ctx context.Context, id uint) error {
	plan, err := s.findPlan(ctx, id)
	if err != nil {
		return err
	}
	if err := s.plans.Delete(ctx, plan); err != nil {
		return err
	}
	s.log.Info("plan deleted", zap.Uint("id", id))
	return nil
}

func (s *planService) findPlan(ctx context.Context, id uint) (*model.Plan, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("errors.not_found", apperr.Detail{
				Path:    "id",
				Message: "Plan not found",
			})
		}
		return nil, err
	}
	return plan, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperr.Validation("errors.invalid_price", apperr.Detail{
			Path:    "price",
			Message: "Price must be a decimal number",
		}).WithCause(err)
	}
	if price.IsNegative() {
		return decimal.Zero, apperr.Validation("errors.invalid_price", apperr.Detail{
			Path:    "price",
			Message: "Price must not be negative",
		})
	}
	return price, nil
}
