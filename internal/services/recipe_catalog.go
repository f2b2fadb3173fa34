package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/okastudio/platewatch/pkg/errors"

	"github.com/okastudio/platewatch/internal/models"
	"gorm.io/gorm"
)

// RecipeService is the gorm-backed RecipeCatalog.
type RecipeService struct {
	db    *gorm.DB
	media MediaResolver
}

func NewRecipeService(db *gorm.DB, media MediaResolver) (*RecipeService, error) {
	if db == nil {
		return nil, errors.New("recipe service requires database handle")
	}
	if media == nil {
		return nil, errors.New("recipe service requires media resolver")
	}
	return &RecipeService{db: db, media: media}, nil
}

func (s *RecipeService) GetRecipe(ctx context.Context, id string) (*RecipeSnapshot, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ErrTargetNotFound
	}

	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTargetNotFound
		}
		return nil, fmt.Errorf("recipe service: get recipe: %w", err)
	}

	snap := &RecipeSnapshot{
		ID:           recipe.ID,
		Title:        recipe.Title,
		AuthorID:     recipe.AuthorID,
		Published:    recipe.Published,
		EditRequired: recipe.EditRequired,
	}
	if recipe.ThumbnailPath != "" {
		snap.ThumbnailURL = s.media.PublicURL(recipe.ThumbnailPath)
	}

	var author models.User
	if err := s.db.WithContext(ctx).Select("username").First(&author, "id = ?", recipe.AuthorID).Error; err == nil {
		snap.AuthorUsername = author.Username
	}
	return snap, nil
}

// UnpublishRecipe takes a recipe off the public surface. Already-unpublished
// recipes are left untouched.
func (s *RecipeService) UnpublishRecipe(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTargetNotFound
		}
		return fmt.Errorf("recipe service: unpublish: %w", err)
	}
	if !recipe.Published {
		return nil
	}

	now := time.Now().UTC()
	err := s.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"published":      false,
			"unpublished_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("recipe service: unpublish: %w", err)
	}
	return nil
}

// RequireRecipeEdit flags a recipe as needing changes from its author before
// it can stay up. Re-flagging is a no-op.
func (s *RecipeService) RequireRecipeEdit(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTargetNotFound
		}
		return fmt.Errorf("recipe service: require edit: %w", err)
	}
	if recipe.EditRequired {
		return nil
	}

	err := s.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("id = ?", id).
		Update("edit_required", true).Error
	if err != nil {
		return fmt.Errorf("recipe service: require edit: %w", err)
	}
	return nil
}
