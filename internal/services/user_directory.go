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

// UserService is the gorm-backed UserDirectory.
type UserService struct {
	db    *gorm.DB
	media MediaResolver
}

func NewUserService(db *gorm.DB, media MediaResolver) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service requires database handle")
	}
	if media == nil {
		return nil, errors.New("user service requires media resolver")
	}
	return &UserService{db: db, media: media}, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*UserSnapshot, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ErrTargetNotFound
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTargetNotFound
		}
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return s.snapshot(&user), nil
}

func (s *UserService) ListAdminIDs(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)

	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.RoleAdmin, true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("user service: list admins: %w", err)
	}
	return ids, nil
}

// SuspendUser sets a temporary suspension window. Extending an existing
// suspension keeps the later expiry; re-applying an identical or earlier
// window is a no-op.
func (s *UserService) SuspendUser(ctx context.Context, id string, until time.Time) error {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTargetNotFound
		}
		return fmt.Errorf("user service: suspend user: %w", err)
	}
	if user.SuspendedUntil != nil && !until.After(*user.SuspendedUntil) {
		return nil
	}

	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("suspended_until", until).Error
	if err != nil {
		return fmt.Errorf("user service: suspend user: %w", err)
	}
	return nil
}

// DisableUser permanently deactivates an account. Already-disabled accounts
// are left untouched.
func (s *UserService) DisableUser(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTargetNotFound
		}
		return fmt.Errorf("user service: disable user: %w", err)
	}
	if user.DisabledAt != nil {
		return nil
	}

	now := time.Now().UTC()
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":   false,
			"disabled_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("user service: disable user: %w", err)
	}
	return nil
}

func (s *UserService) snapshot(user *models.User) *UserSnapshot {
	snap := &UserSnapshot{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Active:      user.IsActive && user.DisabledAt == nil,
	}
	if user.AvatarPath != "" {
		snap.AvatarURL = s.media.PublicURL(user.AvatarPath)
	}
	if snap.DisplayName == "" {
		snap.DisplayName = user.Username
	}
	return snap
}
