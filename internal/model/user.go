package model

import (
	"time"
)

// User represents the central user entity for logic and database structure
type User struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Email      string `gorm:"type:varchar(255);uniqueIndex:idx_users_email;not null" json:"email"`
	Password   string `gorm:"type:varchar(255)" json:"-"` // Omit password hash from JSON requests/responses
	Name       string `gorm:"type:varchar(255)" json:"name"`
	IsVerified bool   `gorm:"default:false" json:"is_verified"`

	// Owning side of the user_roles join table. Role carries no back-pointer
	// to users; lookups always go through this side.
	Roles []Role `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"roles,omitempty"`

	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens.
// A row is consumed (deleted) exactly once on rotation; expired rows are rejected
// at use time rather than garbage-collected.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"type:varchar(500);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	UserID    uint      `gorm:"not null;index:idx_refresh_tokens_user_id" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
