package models

import "time"

// Role names understood by the authorization layer.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the minimal account row the moderation engine operates against.
// Profile management, credentials, and sessions are owned elsewhere; this
// subsystem only reads identity fields and flips account-status fields.
type User struct {
	BaseModel

	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	AvatarPath  string `json:"avatar_path"`

	Role     string `gorm:"type:varchar(32);not null;default:'user';index" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	SuspendedUntil *time.Time `json:"suspended_until,omitempty"`
	DisabledAt     *time.Time `json:"disabled_at,omitempty"`
}

// IsAdmin reports whether the user may review reports.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Suspended reports whether the account is under an active suspension.
func (u *User) Suspended(now time.Time) bool {
	return u.SuspendedUntil != nil && u.SuspendedUntil.After(now)
}
