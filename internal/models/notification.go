package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationType distinguishes the inbox message kinds the moderation engine emits.
type NotificationType string

const (
	NotificationReportReview  NotificationType = "REPORT_REVIEW"
	NotificationNewReport     NotificationType = "NEW_REPORT"
	NotificationWarning       NotificationType = "WARNING"
	NotificationAccountStatus NotificationType = "ACCOUNT_STATUS"
	NotificationRecipeStatus  NotificationType = "RECIPE_STATUS"
	NotificationSystem        NotificationType = "SYSTEM"
)

// Notification represents one persisted inbox entry for a user. Rows are never
// mutated after creation except for the read flag.
type Notification struct {
	BaseModel

	UserID  string           `gorm:"type:uuid;index;not null" json:"user_id"`
	Type    NotificationType `gorm:"type:varchar(64);not null" json:"type"`
	Title   string           `gorm:"type:varchar(255);not null" json:"title"`
	Message string           `gorm:"type:text" json:"message"`

	// RelatedID points at the report or recipe this notification refers to.
	RelatedID *string        `gorm:"type:uuid;index" json:"related_id,omitempty"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`
}
