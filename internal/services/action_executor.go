package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okastudio/platewatch/internal/models"
	"github.com/okastudio/platewatch/internal/moderation"
	"github.com/okastudio/platewatch/pkg/logger"
	"go.uber.org/zap"
)

// ActionExecutor applies moderation actions against the identity and content
// collaborators. Every apply path is idempotent: re-running an action a
// target already carries changes nothing.
type ActionExecutor struct {
	users   UserDirectory
	recipes RecipeCatalog
	policy  moderation.Policy
	log     *zap.Logger
}

func NewActionExecutor(users UserDirectory, recipes RecipeCatalog, policy moderation.Policy) (*ActionExecutor, error) {
	if users == nil || recipes == nil {
		return nil, errors.New("action executor requires user and recipe collaborators")
	}
	return &ActionExecutor{
		users:   users,
		recipes: recipes,
		policy:  policy,
		log:     logger.WithModule("moderation.executor"),
	}, nil
}

// Execute applies action to target. NONE and USER_WARNED carry no side
// effects outside the notification fan-out.
func (e *ActionExecutor) Execute(ctx context.Context, action models.ModerationAction, target models.Target) error {
	ctx = ensureContext(ctx)

	var err error
	switch action {
	case models.ActionNone, models.ActionUserWarned:
		return nil
	case models.ActionUserSuspended:
		until := time.Now().UTC().AddDate(0, 0, e.policy.SuspensionDays)
		err = e.users.SuspendUser(ctx, target.ID, until)
	case models.ActionUserBanned:
		err = e.users.DisableUser(ctx, target.ID)
	case models.ActionRecipeUnpublished:
		err = e.recipes.UnpublishRecipe(ctx, target.ID)
	case models.ActionRecipeEditRequired:
		err = e.recipes.RequireRecipeEdit(ctx, target.ID)
	default:
		return fmt.Errorf("action executor: unknown action %q", action)
	}
	if err != nil {
		e.log.Error("action failed",
			zap.String("action", string(action)),
			zap.String("target", target.Key()),
			zap.Error(err))
		return fmt.Errorf("action executor: %s on %s: %w", action, target.Key(), err)
	}

	e.log.Info("action applied",
		zap.String("action", string(action)),
		zap.String("target", target.Key()))
	return nil
}
