package services

import (
	"context"
	"time"
)

// UserSnapshot is the slice of a user account the moderation engine needs:
// identity for message building and addressing, and the status fields the
// executor flips.
type UserSnapshot struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
}

// RecipeSnapshot is the minimal recipe view used for validation, enrichment,
// and message building.
type RecipeSnapshot struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	AuthorID       string `json:"author_id"`
	AuthorUsername string `json:"author_username"`
	ThumbnailURL   string `json:"thumbnail_url,omitempty"`
	Published      bool   `json:"published"`
	EditRequired   bool   `json:"edit_required"`
}

// UserDirectory is the identity collaborator. Lookups return
// pkg/errors.ErrTargetNotFound for unknown identifiers. The mutating calls
// must be idempotent: re-applying a state an account is already in is a no-op.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*UserSnapshot, error)
	ListAdminIDs(ctx context.Context) ([]string, error)

	SuspendUser(ctx context.Context, id string, until time.Time) error
	DisableUser(ctx context.Context, id string) error
}

// RecipeCatalog is the content collaborator. Same contract as UserDirectory:
// unknown ids yield ErrTargetNotFound, mutations are idempotent.
type RecipeCatalog interface {
	GetRecipe(ctx context.Context, id string) (*RecipeSnapshot, error)

	UnpublishRecipe(ctx context.Context, id string) error
	RequireRecipeEdit(ctx context.Context, id string) error
}

// MediaResolver maps stored media paths onto publicly fetchable URLs.
type MediaResolver interface {
	PublicURL(storedPath string) string
}
