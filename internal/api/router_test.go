package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/okastudio/platewatch/internal/auth"
	"github.com/okastudio/platewatch/internal/database/testutil"
	"github.com/okastudio/platewatch/internal/models"
	"github.com/okastudio/platewatch/internal/moderation"
	"github.com/okastudio/platewatch/internal/realtime"
	"github.com/okastudio/platewatch/internal/services"
)

type apiFixture struct {
	router *gin.Engine
	db     *gorm.DB
	jwt    *auth.JWTService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "platewatch"})
	require.NoError(t, err)

	policy := moderation.DefaultPolicy()
	hub := realtime.NewHub()
	media := services.NewMediaURLResolver("")

	users, err := services.NewUserService(db, media)
	require.NoError(t, err)
	recipes, err := services.NewRecipeService(db, media)
	require.NoError(t, err)
	notifications, err := services.NewNotificationService(db, hub)
	require.NoError(t, err)
	notifier, err := services.NewNotifier(db, notifications, users, recipes, hub, policy)
	require.NoError(t, err)
	validator, err := services.NewReportValidator(db, users, recipes)
	require.NoError(t, err)
	executor, err := services.NewActionExecutor(users, recipes, policy)
	require.NoError(t, err)
	synchronizer := services.NewReportSynchronizer()
	autoModerator, err := services.NewAutoModerator(policy, executor, synchronizer)
	require.NoError(t, err)
	groups, err := services.NewReportGroupService(db, policy, users, recipes)
	require.NoError(t, err)
	reports, err := services.NewReportService(services.ReportServiceDeps{
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

	router, err := NewRouter(Dependencies{
		DB:            db,
		JWT:           jwtService,
		Hub:           hub,
		Reports:       reports,
		Groups:        groups,
		Notifications: notifications,
		EnableMetrics: true,
	})
	require.NoError(t, err)

	return &apiFixture{router: router, db: db, jwt: jwtService}
}

func (f *apiFixture) createUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username:    username,
		DisplayName: username,
		Email:       username + "@platewatch.test",
		Role:        role,
		IsActive:    true,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *apiFixture) createRecipe(t *testing.T, authorID, title string) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{Title: title, AuthorID: authorID, Published: true}
	require.NoError(t, f.db.Create(recipe).Error)
	return recipe
}

func (f *apiFixture) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := f.jwt.GenerateAccessToken(auth.AccessTokenInput{UserID: user.ID, Role: user.Role})
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func TestHealthEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	live := f.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, live.Code)

	ready := f.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, ready.Code)

	metrics := f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, metrics.Code)
}

func TestAuthenticationRequired(t *testing.T) {
	f := newAPIFixture(t)

	res := f.do(t, http.MethodPost, "/api/reports", "", map[string]string{"type": "SPAM"})
	require.Equal(t, http.StatusUnauthorized, res.Code)

	res = f.do(t, http.MethodPost, "/api/reports", "not-a-token", map[string]string{"type": "SPAM"})
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAdminGate(t *testing.T) {
	f := newAPIFixture(t)
	user := f.createUser(t, "regular", models.RoleUser)

	res := f.do(t, http.MethodGet, "/api/admin/reports", f.token(t, user), nil)
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestReportLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.createUser(t, "admin", models.RoleAdmin)
	reporter := f.createUser(t, "reporter", models.RoleUser)
	author := f.createUser(t, "author", models.RoleUser)
	recipe := f.createRecipe(t, author.ID, "Suspicious Stew")

	// File a report.
	res := f.do(t, http.MethodPost, "/api/reports", f.token(t, reporter), map[string]interface{}{
		"recipe_id": recipe.ID,
		"type":      "COPYRIGHT",
		"reason":    "Lifted from a cookbook",
	})
	require.Equal(t, http.StatusCreated, res.Code)

	var created struct {
		Data services.ReportDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
	require.Equal(t, models.ReportStatusPending, created.Data.Status)

	// Duplicate is rejected with a conflict.
	res = f.do(t, http.MethodPost, "/api/reports", f.token(t, reporter), map[string]interface{}{
		"recipe_id": recipe.ID,
		"type":      "SPAM",
	})
	require.Equal(t, http.StatusConflict, res.Code)

	// The admin sees the queue.
	res = f.do(t, http.MethodGet, "/api/admin/report-groups", f.token(t, admin), nil)
	require.Equal(t, http.StatusOK, res.Code)
	var queue struct {
		Data []services.ReportGroupDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &queue))
	require.Len(t, queue.Data, 1)
	require.Equal(t, recipe.ID, queue.Data[0].Target.ID)

	// Review with an action.
	res = f.do(t, http.MethodPost, fmt.Sprintf("/api/admin/reports/%s/review", created.Data.ID), f.token(t, admin), map[string]interface{}{
		"action":      "RECIPE_UNPUBLISHED",
		"founded":     true,
		"description": "Verified plagiarism",
	})
	require.Equal(t, http.StatusOK, res.Code)

	var reviewed struct {
		Data services.ReportDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &reviewed))
	require.Equal(t, models.ReportStatusResolved, reviewed.Data.Status)

	// Second review conflicts.
	res = f.do(t, http.MethodPost, fmt.Sprintf("/api/admin/reports/%s/review", created.Data.ID), f.token(t, admin), map[string]interface{}{
		"action":  "NONE",
		"founded": true,
	})
	require.Equal(t, http.StatusConflict, res.Code)

	// Statistics reflect the settled report.
	res = f.do(t, http.MethodGet, "/api/admin/reports/statistics", f.token(t, admin), nil)
	require.Equal(t, http.StatusOK, res.Code)
	var stats struct {
		Data services.ReportStatisticsDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &stats))
	require.EqualValues(t, 1, stats.Data.Total)
	require.EqualValues(t, 1, stats.Data.Resolved)
}

func TestBatchReviewOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.createUser(t, "admin", models.RoleAdmin)
	offender := f.createUser(t, "offender", models.RoleUser)

	for _, name := range []string{"r1", "r2"} {
		reporter := f.createUser(t, name, models.RoleUser)
		res := f.do(t, http.MethodPost, "/api/reports", f.token(t, reporter), map[string]interface{}{
			"reported_user_id": offender.ID,
			"type":             "SPAM",
		})
		require.Equal(t, http.StatusCreated, res.Code)
	}

	res := f.do(t, http.MethodPost, fmt.Sprintf("/api/admin/report-groups/user/%s/review", offender.ID), f.token(t, admin), map[string]interface{}{
		"action":      "USER_WARNED",
		"founded":     true,
		"description": "Stop spamming recipe comments",
	})
	require.Equal(t, http.StatusOK, res.Code)

	var result struct {
		Data struct {
			Settled int64 `json:"settled"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &result))
	require.EqualValues(t, 2, result.Data.Settled)

	// Target statistics show no remaining pending reports.
	res = f.do(t, http.MethodGet, fmt.Sprintf("/api/admin/report-groups/user/%s/statistics", offender.ID), f.token(t, admin), nil)
	require.Equal(t, http.StatusOK, res.Code)
	var stats struct {
		Data services.TargetStatisticsDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &stats))
	require.EqualValues(t, 2, stats.Data.Total)
	require.Zero(t, stats.Data.Pending)
}

func TestNotificationEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.createUser(t, "admin", models.RoleAdmin)
	reporter := f.createUser(t, "reporter", models.RoleUser)
	offender := f.createUser(t, "offender", models.RoleUser)

	res := f.do(t, http.MethodPost, "/api/reports", f.token(t, reporter), map[string]interface{}{
		"reported_user_id": offender.ID,
		"type":             "HARASSMENT",
		"reason":           "Abusive comments",
	})
	require.Equal(t, http.StatusCreated, res.Code)

	// The admin's inbox eventually receives the new-report notification.
	require.Eventually(t, func() bool {
		res := f.do(t, http.MethodGet, "/api/notifications", f.token(t, admin), nil)
		if res.Code != http.StatusOK {
			return false
		}
		var list struct {
			Data []services.NotificationDTO `json:"data"`
		}
		if err := json.Unmarshal(res.Body.Bytes(), &list); err != nil {
			return false
		}
		return len(list.Data) == 1
	}, 2*time.Second, 10*time.Millisecond)

	res = f.do(t, http.MethodGet, "/api/notifications/unread-count", f.token(t, admin), nil)
	require.Equal(t, http.StatusOK, res.Code)
	var count struct {
		Data struct {
			Unread int64 `json:"unread"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &count))
	require.EqualValues(t, 1, count.Data.Unread)

	res = f.do(t, http.MethodPost, "/api/notifications/read-all", f.token(t, admin), nil)
	require.Equal(t, http.StatusOK, res.Code)

	res = f.do(t, http.MethodGet, "/api/notifications/unread-count", f.token(t, admin), nil)
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &count))
	require.Zero(t, count.Data.Unread)
}

func TestInvalidPayloadRejected(t *testing.T) {
	f := newAPIFixture(t)
	reporter := f.createUser(t, "reporter", models.RoleUser)

	// Missing required type field.
	res := f.do(t, http.MethodPost, "/api/reports", f.token(t, reporter), map[string]interface{}{
		"reported_user_id": "someone",
	})
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestReportListRejectsMalformedDates(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.createUser(t, "admin", models.RoleAdmin)
	token := f.token(t, admin)

	res := f.do(t, http.MethodGet, "/api/admin/reports?from=yesterday", token, nil)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, http.MethodGet, "/api/admin/reports?to=2026-13-99", token, nil)
	require.Equal(t, http.StatusBadRequest, res.Code)

	// Well-formed bounds still work.
	from := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	res = f.do(t, http.MethodGet, "/api/admin/reports?from="+from, token, nil)
	require.Equal(t, http.StatusOK, res.Code)
}
