package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/okastudio/platewatch/internal/database/testutil"
	"github.com/okastudio/platewatch/internal/models"
	"github.com/okastudio/platewatch/internal/moderation"
)

// testEnv wires the full moderation stack onto an in-memory database. The
// realtime hub is left nil: live push is best effort and the services must
// work without it.
type testEnv struct {
	db            *gorm.DB
	policy        moderation.Policy
	users         *UserService
	recipes       *RecipeService
	notifications *NotificationService
	notifier      *Notifier
	groups        *ReportGroupService
	reports       *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithDB(t, testutil.MustOpenTestDB(t, testutil.WithAutoMigrate()))
}

func newTestEnvWithDB(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()

	policy := moderation.DefaultPolicy()
	media := NewMediaURLResolver("https://cdn.platewatch.test")

	users, err := NewUserService(db, media)
	require.NoError(t, err)
	recipes, err := NewRecipeService(db, media)
	require.NoError(t, err)
	notifications, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	notifier, err := NewNotifier(db, notifications, users, recipes, nil, policy)
	require.NoError(t, err)
	validator, err := NewReportValidator(db, users, recipes)
	require.NoError(t, err)
	executor, err := NewActionExecutor(users, recipes, policy)
	require.NoError(t, err)
	synchronizer := NewReportSynchronizer()
	autoModerator, err := NewAutoModerator(policy, executor, synchronizer)
	require.NoError(t, err)
	groups, err := NewReportGroupService(db, policy, users, recipes)
	require.NoError(t, err)

	reports, err := NewReportService(ReportServiceDeps{
		DB:            db,
		Policy:        policy,
		Locks:         moderation.NewTargetLocks(),
		Validator:     validator,
		Executor:      executor,
		Synchronizer:  synchronizer,
		AutoModerator: autoModerator,
		Notifier:      notifier,
		Notifications: notifications,
		Users:         users,
	})
	require.NoError(t, err)

	return &testEnv{
		db:            db,
		policy:        policy,
		users:         users,
		recipes:       recipes,
		notifications: notifications,
		notifier:      notifier,
		groups:        groups,
		reports:       reports,
	}
}

func (e *testEnv) createUser(t *testing.T, username, role string) *models.User {
	t.Helper()

	user := &models.User{
		Username:    username,
		DisplayName: username,
		Email:       username + "@platewatch.test",
		Role:        role,
		IsActive:    true,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createRecipe(t *testing.T, authorID, title string) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		Title:     title,
		AuthorID:  authorID,
		Published: true,
	}
	require.NoError(t, e.db.Create(recipe).Error)
	return recipe
}

func (e *testEnv) fileReport(t *testing.T, reporterID string, target models.Target, reportType models.ReportType) *ReportDTO {
	t.Helper()

	input := CreateReportInput{Type: reportType, Reason: "test report"}
	if target.Kind == models.TargetRecipe {
		id := target.ID
		input.RecipeID = &id
	} else {
		id := target.ID
		input.ReportedUserID = &id
	}

	dto, err := e.reports.Create(t.Context(), reporterID, input)
	require.NoError(t, err)
	return dto
}

func (e *testEnv) notificationsFor(t *testing.T, userID string) []models.Notification {
	t.Helper()

	var rows []models.Notification
	require.NoError(t, e.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&rows).Error)
	return rows
}

// waitForNotification polls until the user has at least one notification of
// the given type. Fan-out runs on detached goroutines, so tests wait rather
// than assume ordering.
func (e *testEnv) waitForNotification(t *testing.T, userID string, typ models.NotificationType) models.Notification {
	t.Helper()

	var found models.Notification
	require.Eventually(t, func() bool {
		var rows []models.Notification
		if err := e.db.Where("user_id = ? AND type = ?", userID, typ).Find(&rows).Error; err != nil {
			return false
		}
		if len(rows) == 0 {
			return false
		}
		found = rows[0]
		return true
	}, 2*time.Second, 10*time.Millisecond)
	return found
}

func (e *testEnv) reloadReport(t *testing.T, id string) *models.Report {
	t.Helper()

	var report models.Report
	require.NoError(t, e.db.First(&report, "id = ?", id).Error)
	return &report
}
