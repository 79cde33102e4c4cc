package model

import (
	"time"
)

// Permission names form a closed enumeration; new capabilities are added here
// and seeded at startup.
const (
	PermissionUserManagement    = "USER_MANAGEMENT"
	PermissionRoleManagement    = "ROLE_MANAGEMENT"
	PermissionBillingManagement = "BILLING_MANAGEMENT"
)

// Role represents a named bundle of permission grants, many-to-many with users
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(50);uniqueIndex:idx_roles_name;not null" json:"name"`

	RolePermissions []RolePermission `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"role_permissions,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Permission represents a single named capability that can be granted to roles
type Permission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex:idx_permissions_name;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RolePermission is the join entity carrying the read/write/delete grant flags
// for one (role, permission) pair. Absence of a row means no grant at all.
type RolePermission struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Owning-side foreign keys only; the parents carry no pointers back into
	// this entity beyond Role.RolePermissions, which keeps the graph acyclic.
	RoleID       uint       `gorm:"not null;index:idx_role_permissions_role_id" json:"role_id"`
	PermissionID uint       `gorm:"not null;index:idx_role_permissions_permission_id" json:"permission_id"`
	Permission   Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE" json:"permission"`

	CanRead   bool `gorm:"default:false" json:"can_read"`
	CanWrite  bool `gorm:"default:false" json:"can_write"`
	CanDelete bool `gorm:"default:false" json:"can_delete"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Granted reports whether the link carries at least one of the three grant flags.
func (rp RolePermission) Granted() bool {
	return rp.CanRead || rp.CanWrite || rp.CanDelete
}
