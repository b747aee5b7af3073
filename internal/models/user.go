package models

import "time"

// Campus roles carried in access tokens
const (
	RoleStudent        = "student"
	RoleFaculty        = "faculty"
	RoleHOD            = "hod"
	RolePrincipal      = "principal"
	RoleAdmin          = "admin"
	RoleWarden         = "warden"
	RoleCanteenManager = "canteen_manager"
	RoleStallOwner     = "stall_owner"
)

// ValidRole reports whether role is one of the campus roles
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleFaculty, RoleHOD, RolePrincipal, RoleAdmin, RoleWarden, RoleCanteenManager, RoleStallOwner:
		return true
	}
	return false
}

// User represents the users table
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:50" json:"username"`
	PasswordHash string    `gorm:"not null;size:255" json:"-"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Phone        string    `gorm:"size:30" json:"phone,omitempty"`
	UserCode     string    `gorm:"size:50;index" json:"user_code,omitempty"` // roll number or employee id
	Role         string    `gorm:"size:20;not null;default:'student'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// RefreshToken represents the refresh_tokens table
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	TokenHash string    `gorm:"not null;size:255;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `gorm:"not null" json:"revoked"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
