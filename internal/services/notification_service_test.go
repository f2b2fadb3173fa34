package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/okastudio/platewatch/internal/models"
)

func TestNotificationLifecycle(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", models.RoleUser)
	stranger := env.createUser(t, "stranger", models.RoleUser)

	created, err := env.notifications.Create(t.Context(), CreateNotificationInput{
		UserID:  owner.ID,
		Type:    models.NotificationSystem,
		Content: MessageContent{Title: "Hello", Message: "World"},
	})
	require.NoError(t, err)
	require.False(t, created.IsRead)

	count, err := env.notifications.UnreadCount(t.Context(), owner.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	// Only the owner may mark or delete.
	require.Error(t, env.notifications.MarkRead(t.Context(), stranger.ID, created.ID))
	require.Error(t, env.notifications.Delete(t.Context(), stranger.ID, created.ID))

	require.NoError(t, env.notifications.MarkRead(t.Context(), owner.ID, created.ID))
	count, err = env.notifications.UnreadCount(t.Context(), owner.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	// Marking an already-read notification is a no-op, not an error.
	require.NoError(t, env.notifications.MarkRead(t.Context(), owner.ID, created.ID))

	require.NoError(t, env.notifications.Delete(t.Context(), owner.ID, created.ID))
	rows, total, err := env.notifications.ListForUser(t.Context(), owner.ID, ListNotificationsInput{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, rows)
}

func TestMarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", models.RoleUser)

	for i := 0; i < 3; i++ {
		_, err := env.notifications.Create(t.Context(), CreateNotificationInput{
			UserID:  owner.ID,
			Type:    models.NotificationSystem,
			Content: MessageContent{Title: "n", Message: "m"},
		})
		require.NoError(t, err)
	}

	updated, err := env.notifications.MarkAllRead(t.Context(), owner.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, updated)

	count, err := env.notifications.UnreadCount(t.Context(), owner.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestListUnreadOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", models.RoleUser)

	first, err := env.notifications.Create(t.Context(), CreateNotificationInput{
		UserID:  owner.ID,
		Type:    models.NotificationSystem,
		Content: MessageContent{Title: "first", Message: "m"},
	})
	require.NoError(t, err)
	_, err = env.notifications.Create(t.Context(), CreateNotificationInput{
		UserID:  owner.ID,
		Type:    models.NotificationSystem,
		Content: MessageContent{Title: "second", Message: "m"},
	})
	require.NoError(t, err)

	require.NoError(t, env.notifications.MarkRead(t.Context(), owner.ID, first.ID))

	unread, total, err := env.notifications.ListForUser(t.Context(), owner.ID, ListNotificationsInput{UnreadOnly: true})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, unread, 1)
	require.Equal(t, "second", unread[0].Title)
}

func TestDeleteRelatedSpansRecipients(t *testing.T) {
	env := newTestEnv(t)
	first := env.createUser(t, "first", models.RoleUser)
	second := env.createUser(t, "second", models.RoleUser)

	relatedID := "report-123"
	for _, user := range []*models.User{first, second} {
		_, err := env.notifications.Create(t.Context(), CreateNotificationInput{
			UserID:    user.ID,
			Type:      models.NotificationReportReview,
			Content:   MessageContent{Title: "n", Message: "m"},
			RelatedID: &relatedID,
		})
		require.NoError(t, err)
	}

	removed, err := env.notifications.DeleteRelated(t.Context(), relatedID)
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	require.Empty(t, env.notificationsFor(t, first.ID))
	require.Empty(t, env.notificationsFor(t, second.ID))
}

func TestPurgeReadBefore(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "owner", models.RoleUser)

	old, err := env.notifications.Create(t.Context(), CreateNotificationInput{
		UserID:  owner.ID,
		Type:    models.NotificationSystem,
		Content: MessageContent{Title: "old", Message: "m"},
	})
	require.NoError(t, err)
	require.NoError(t, env.notifications.MarkRead(t.Context(), owner.ID, old.ID))

	// Age the read notification past the cutoff.
	aged := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, env.db.Model(&models.Notification{}).
		Where("id = ?", old.ID).
		Update("created_at", aged).Error)

	fresh, err := env.notifications.Create(t.Context(), CreateNotificationInput{
		UserID:  owner.ID,
		Type:    models.NotificationSystem,
		Content: MessageContent{Title: "fresh", Message: "m"},
	})
	require.NoError(t, err)

	purged, err := env.notifications.PurgeReadBefore(t.Context(), time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)

	rows := env.notificationsFor(t, owner.ID)
	require.Len(t, rows, 1)
	require.Equal(t, fresh.ID, rows[0].ID)
}
