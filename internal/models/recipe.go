package models

import "time"

// Recipe is the minimal published-content row the moderation engine operates
// against. Ingredients, steps, tags, and media uploads are owned by the content
// service; moderation only needs identity, authorship, and publish state.
type Recipe struct {
	BaseModel

	Title         string `gorm:"not null" json:"title"`
	AuthorID      string `gorm:"type:uuid;index;not null" json:"author_id"`
	ThumbnailPath string `json:"thumbnail_path"`

	Published    bool `gorm:"default:true;index" json:"published"`
	EditRequired bool `gorm:"default:false" json:"edit_required"`

	UnpublishedAt *time.Time `json:"unpublished_at,omitempty"`
}
