package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/okastudio/platewatch/pkg/errors"

	"github.com/okastudio/platewatch/internal/models"
	"gorm.io/gorm"
)

// ReportValidator runs the admission checks for new reports: target shape,
// type taxonomy, self-report, target existence, and duplicate detection.
type ReportValidator struct {
	db      *gorm.DB
	users   UserDirectory
	recipes RecipeCatalog
}

func NewReportValidator(db *gorm.DB, users UserDirectory, recipes RecipeCatalog) (*ReportValidator, error) {
	if db == nil {
		return nil, errors.New("report validator requires database handle")
	}
	if users == nil || recipes == nil {
		return nil, errors.New("report validator requires user and recipe collaborators")
	}
	return &ReportValidator{db: db, users: users, recipes: recipes}, nil
}

// ValidateCreate checks a creation request and returns the resolved target.
func (v *ReportValidator) ValidateCreate(ctx context.Context, reporterID string, input CreateReportInput) (models.Target, error) {
	ctx = ensureContext(ctx)

	target, err := resolveTarget(input.RecipeID, input.ReportedUserID)
	if err != nil {
		return models.Target{}, err
	}

	reportType := models.ReportType(strings.ToUpper(strings.TrimSpace(string(input.Type))))
	if !reportType.Valid() {
		return models.Target{}, apperrors.NewBadRequest(fmt.Sprintf("unknown report type %q", input.Type))
	}

	switch target.Kind {
	case models.TargetUser:
		if target.ID == reporterID {
			return models.Target{}, apperrors.ErrSelfReport
		}
		if _, err := v.users.GetUser(ctx, target.ID); err != nil {
			return models.Target{}, err
		}
	case models.TargetRecipe:
		if _, err := v.recipes.GetRecipe(ctx, target.ID); err != nil {
			return models.Target{}, err
		}
	}

	duplicate, err := v.hasPendingDuplicate(ctx, reporterID, target)
	if err != nil {
		return models.Target{}, err
	}
	if duplicate {
		return models.Target{}, apperrors.ErrDuplicateReport
	}
	return target, nil
}

// hasPendingDuplicate reports whether the reporter already has an open report
// against the same target. Settled reports do not block re-reporting.
func (v *ReportValidator) hasPendingDuplicate(ctx context.Context, reporterID string, target models.Target) (bool, error) {
	query := v.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("reporter_id = ? AND status = ?", reporterID, models.ReportStatusPending)
	query = scopeToTarget(query, target)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("report validator: duplicate check: %w", err)
	}
	return count > 0, nil
}

// resolveTarget enforces that exactly one of the two target fields is set.
func resolveTarget(recipeID, reportedUserID *string) (models.Target, error) {
	recipe := ""
	if recipeID != nil {
		recipe = strings.TrimSpace(*recipeID)
	}
	user := ""
	if reportedUserID != nil {
		user = strings.TrimSpace(*reportedUserID)
	}

	switch {
	case recipe != "" && user != "":
		return models.Target{}, apperrors.NewBadRequest("report must target either a recipe or a user, not both")
	case recipe != "":
		return models.RecipeTarget(recipe), nil
	case user != "":
		return models.UserTarget(user), nil
	default:
		return models.Target{}, apperrors.NewBadRequest("report must target a recipe or a user")
	}
}

// scopeToTarget narrows a report query to a single moderation target.
func scopeToTarget(query *gorm.DB, target models.Target) *gorm.DB {
	if target.Kind == models.TargetUser {
		return query.Where("reported_user_id = ?", target.ID)
	}
	return query.Where("recipe_id = ?", target.ID)
}
