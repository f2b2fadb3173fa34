package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/okastudio/platewatch/pkg/errors"

	"github.com/okastudio/platewatch/internal/models"
	"github.com/okastudio/platewatch/internal/realtime"
	"github.com/okastudio/platewatch/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxNotificationPageSize = 100

// NotificationService persists in-app notifications and pushes them to live
// websocket subscribers. Live push is best effort: a user without an open
// connection still sees the notification on the next list call.
type NotificationService struct {
	db  *gorm.DB
	hub *realtime.Hub
	log *zap.Logger
}

func NewNotificationService(db *gorm.DB, hub *realtime.Hub) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service requires database handle")
	}
	return &NotificationService{
		db:  db,
		hub: hub,
		log: logger.WithModule("notifications"),
	}, nil
}

type NotificationDTO struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	RelatedID *string         `json:"related_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	IsRead    bool            `json:"is_read"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type CreateNotificationInput struct {
	UserID    string
	Type      models.NotificationType
	Content   MessageContent
	RelatedID *string
	Metadata  map[string]interface{}
}

// Create stores one notification and pushes it to the recipient's live
// stream if they are connected.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("notification recipient is required")
	}

	notification := models.Notification{
		UserID:    userID,
		Type:      input.Type,
		Title:     input.Content.Title,
		Message:   input.Content.Message,
		RelatedID: input.RelatedID,
	}
	if len(input.Metadata) > 0 {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("notification service: encode metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(raw)
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create: %w", err)
	}

	dto := toNotificationDTO(&notification)
	s.push(userID, "notification.created", dto)
	return dto, nil
}

type ListNotificationsInput struct {
	Page       int
	Size       int
	UnreadOnly bool
}

func (s *NotificationService) ListForUser(ctx context.Context, userID string, input ListNotificationsInput) ([]NotificationDTO, int64, error) {
	ctx = ensureContext(ctx)
	page, size := normalizePagination(input.Page, input.Size, maxNotificationPageSize)

	query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if input.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: count: %w", err)
	}

	var rows []models.Notification
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("notification service: list: %w", err)
	}

	out := make([]NotificationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toNotificationDTO(&rows[i]))
	}
	return out, total, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("notification service: unread count: %w", err)
	}
	return count, nil
}

// MarkRead marks one notification as read. Only the owner may do so.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)

	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", notificationID, userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return fmt.Errorf("notification service: mark read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).
			Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", notificationID, userID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("notification service: mark read: %w", err)
		}
		if count == 0 {
			return apperrors.NewNotFound("notification not found")
		}
	}
	s.pushUnreadCount(ctx, userID)
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: mark all read: %w", result.Error)
	}
	s.pushUnreadCount(ctx, userID)
	return result.RowsAffected, nil
}

// Delete removes one notification owned by userID.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("notification service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("notification not found")
	}
	return nil
}

// DeleteRelated removes every notification linked to a deleted entity, for
// any recipient. Reading or dismissing a notification never triggers this;
// it runs only when the related content itself is removed.
func (s *NotificationService) DeleteRelated(ctx context.Context, relatedID string) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("related_id = ?", relatedID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: delete related: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// PurgeReadBefore deletes read notifications older than cutoff. Used by the
// retention sweeper.
func (s *NotificationService) PurgeReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: purge: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *NotificationService) push(userID, event string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToUser(realtime.StreamNotifications, userID, realtime.Message{
		Stream: realtime.StreamNotifications,
		Event:  event,
		Data:   payload,
	})
}

func (s *NotificationService) pushUnreadCount(ctx context.Context, userID string) {
	if s.hub == nil {
		return
	}
	count, err := s.UnreadCount(ctx, userID)
	if err != nil {
		s.log.Warn("unread count push skipped", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.push(userID, "notification.unread_count", map[string]int64{"unread": count})
}

func toNotificationDTO(n *models.Notification) *NotificationDTO {
	dto := &NotificationDTO{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		RelatedID: n.RelatedID,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
	if len(n.Metadata) > 0 {
		dto.Metadata = json.RawMessage(n.Metadata)
	}
	return dto
}
