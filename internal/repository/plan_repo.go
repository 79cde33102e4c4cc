package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/model"
)

// PlanRepository defines the interface for data access of billing plans.
type PlanRepository interface {
	CrudStore[model.Plan]
	FindByName(ctx context.Context, name string) (*model.Plan, error)
}

type planRepository struct {
	*Store[model.Plan]
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{Store: NewStore[model.Plan](db), db: db}
}

func (r *planRepository) FindByName(ctx context.Context, name string) (*model.Plan, error) {
	var plan model.Plan
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}
