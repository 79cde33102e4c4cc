package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan represents a billable subscription plan managed under the
// BILLING_MANAGEMENT permission.
type Plan struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Interval    string          `gorm:"type:varchar(20);default:'month'" json:"interval"` // month, year
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
