package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReportType classifies an abuse complaint. The taxonomy is closed; declaration
// order doubles as the tie-break order when two types share a severity weight.
type ReportType string

const (
	ReportTypeSpam          ReportType = "SPAM"
	ReportTypeInappropriate ReportType = "INAPPROPRIATE"
	ReportTypeCopyright     ReportType = "COPYRIGHT"
	ReportTypeHarassment    ReportType = "HARASSMENT"
	ReportTypeOther         ReportType = "OTHER"
)

// ReportTypes lists the taxonomy in declaration order.
var ReportTypes = []ReportType{
	ReportTypeSpam,
	ReportTypeInappropriate,
	ReportTypeCopyright,
	ReportTypeHarassment,
	ReportTypeOther,
}

// Valid reports whether the type belongs to the closed taxonomy.
func (t ReportType) Valid() bool {
	for _, known := range ReportTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ReportStatus tracks the report lifecycle. PENDING is the only non-terminal state.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "PENDING"
	ReportStatusResolved ReportStatus = "RESOLVED"
	ReportStatusRejected ReportStatus = "REJECTED"
)

// Terminal reports whether the status permits no further transitions.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusResolved || s == ReportStatusRejected
}

// ModerationAction is the real-world consequence attached to a reviewed report.
type ModerationAction string

const (
	ActionNone               ModerationAction = "NONE"
	ActionUserWarned         ModerationAction = "USER_WARNED"
	ActionUserSuspended      ModerationAction = "USER_SUSPENDED"
	ActionUserBanned         ModerationAction = "USER_BANNED"
	ActionRecipeUnpublished  ModerationAction = "RECIPE_UNPUBLISHED"
	ActionRecipeEditRequired ModerationAction = "RECIPE_EDIT_REQUIRED"
)

// ModerationActions lists all actions a reviewer may take.
var ModerationActions = []ModerationAction{
	ActionNone,
	ActionUserWarned,
	ActionUserSuspended,
	ActionUserBanned,
	ActionRecipeUnpublished,
	ActionRecipeEditRequired,
}

// Valid reports whether the action is a known moderation action.
func (a ModerationAction) Valid() bool {
	for _, known := range ModerationActions {
		if a == known {
			return true
		}
	}
	return false
}

// TargetsUser reports whether the action mutates a user account.
func (a ModerationAction) TargetsUser() bool {
	switch a {
	case ActionUserWarned, ActionUserSuspended, ActionUserBanned:
		return true
	}
	return false
}

// Report represents one abuse complaint filed by a reporter against exactly one
// of a recipe or a user. A report that has left PENDING always carries the
// action that was taken.
type Report struct {
	BaseModel

	ReporterID string `gorm:"type:uuid;index;not null" json:"reporter_id"`

	RecipeID       *string `gorm:"type:uuid;index" json:"recipe_id,omitempty"`
	ReportedUserID *string `gorm:"type:uuid;index" json:"reported_user_id,omitempty"`

	// TargetKey denormalizes the target identity ("recipe:<id>" or
	// "user:<id>") so the one-pending-report-per-reporter-and-target rule
	// can be enforced with a partial unique index.
	TargetKey string `gorm:"type:varchar(64);index;not null" json:"-"`

	Type   ReportType   `gorm:"type:varchar(32);not null;index" json:"type"`
	Reason string       `gorm:"type:text" json:"reason"`
	Status ReportStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`

	ActionTaken       *ModerationAction `gorm:"type:varchar(32)" json:"action_taken,omitempty"`
	ActionDescription string            `gorm:"type:text" json:"action_description,omitempty"`

	ReviewerID *string    `gorm:"type:uuid" json:"reviewer_id,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`

	AutoModerated bool `gorm:"default:false" json:"auto_moderated"`

	Metadata datatypes.JSON `json:"metadata,omitempty"`
}

// TargetKind distinguishes the two report target flavours.
type TargetKind string

const (
	TargetRecipe TargetKind = "recipe"
	TargetUser   TargetKind = "user"
)

// Target identifies the recipe or user a report is filed against.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

// Key returns a stable string identity used for grouping and per-target locking.
func (t Target) Key() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.ID)
}

// RecipeTarget builds a Target for a recipe.
func RecipeTarget(recipeID string) Target {
	return Target{Kind: TargetRecipe, ID: recipeID}
}

// UserTarget builds a Target for a user account.
func UserTarget(userID string) Target {
	return Target{Kind: TargetUser, ID: userID}
}

// BeforeCreate fills the denormalized target key alongside the base id.
func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if err := r.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if r.TargetKey == "" {
		r.TargetKey = r.Target().Key()
	}
	return nil
}

// Target returns the report's target. The zero Target is returned when neither
// side is set, which only occurs for malformed rows.
func (r *Report) Target() Target {
	switch {
	case r.RecipeID != nil && *r.RecipeID != "":
		return RecipeTarget(*r.RecipeID)
	case r.ReportedUserID != nil && *r.ReportedUserID != "":
		return UserTarget(*r.ReportedUserID)
	}
	return Target{}
}

// HasAction reports whether a real action (anything but NONE) was taken.
func (r *Report) HasAction() bool {
	return r.ActionTaken != nil && *r.ActionTaken != ActionNone
}
