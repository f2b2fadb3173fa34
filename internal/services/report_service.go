package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/okastudio/platewatch/pkg/errors"

	"github.com/okastudio/platewatch/internal/models"
	"github.com/okastudio/platewatch/internal/moderation"
	"github.com/okastudio/platewatch/pkg/logger"
	"github.com/okastudio/platewatch/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxReportPageSize = 100

// ReportService orchestrates the report lifecycle: admission, the review
// state machine, action execution, sibling synchronization, and the
// post-commit notification fan-out.
type ReportService struct {
	db            *gorm.DB
	policy        moderation.Policy
	locks         *moderation.TargetLocks
	validator     *ReportValidator
	executor      *ActionExecutor
	synchronizer  *ReportSynchronizer
	autoModerator *AutoModerator
	notifier      *Notifier
	notifications *NotificationService
	users         UserDirectory
	log           *zap.Logger
}

type ReportServiceDeps struct {
	DB            *gorm.DB
	Policy        moderation.Policy
	Locks         *moderation.TargetLocks
	Validator     *ReportValidator
	Executor      *ActionExecutor
	Synchronizer  *ReportSynchronizer
	AutoModerator *AutoModerator
	Notifier      *Notifier
	Notifications *NotificationService
	Users         UserDirectory
}

func NewReportService(deps ReportServiceDeps) (*ReportService, error) {
	switch {
	case deps.DB == nil:
		return nil, errors.New("report service requires database handle")
	case deps.Locks == nil:
		return nil, errors.New("report service requires target locks")
	case deps.Validator == nil:
		return nil, errors.New("report service requires validator")
	case deps.Executor == nil:
		return nil, errors.New("report service requires action executor")
	case deps.Synchronizer == nil:
		return nil, errors.New("report service requires synchronizer")
	case deps.AutoModerator == nil:
		return nil, errors.New("report service requires auto moderator")
	case deps.Notifier == nil:
		return nil, errors.New("report service requires notifier")
	case deps.Notifications == nil:
		return nil, errors.New("report service requires notification service")
	case deps.Users == nil:
		return nil, errors.New("report service requires user directory")
	}
	return &ReportService{
		db:            deps.DB,
		policy:        deps.Policy,
		locks:         deps.Locks,
		validator:     deps.Validator,
		executor:      deps.Executor,
		synchronizer:  deps.Synchronizer,
		autoModerator: deps.AutoModerator,
		notifier:      deps.Notifier,
		notifications: deps.Notifications,
		users:         deps.Users,
		log:           logger.WithModule("moderation.reports"),
	}, nil
}

// ReportDTO is the API projection of a report.
type ReportDTO struct {
	ID                string            `json:"id"`
	ReporterID        string            `json:"reporter_id"`
	ReporterUsername  string            `json:"reporter_username,omitempty"`
	RecipeID          *string           `json:"recipe_id,omitempty"`
	ReportedUserID    *string           `json:"reported_user_id,omitempty"`
	Target            models.Target     `json:"target"`
	Type              models.ReportType `json:"type"`
	Reason            string            `json:"reason,omitempty"`
	Status            models.ReportStatus `json:"status"`
	ActionTaken       *models.ModerationAction `json:"action_taken,omitempty"`
	ActionDescription string            `json:"action_description,omitempty"`
	ReviewerID        *string           `json:"reviewer_id,omitempty"`
	ReviewedAt        *time.Time        `json:"reviewed_at,omitempty"`
	AutoModerated     bool              `json:"auto_moderated"`
	CreatedAt         time.Time         `json:"created_at"`
}

// CreateReportInput carries a new complaint. Exactly one of RecipeID and
// ReportedUserID must be set.
type CreateReportInput struct {
	RecipeID       *string           `json:"recipe_id"`
	ReportedUserID *string           `json:"reported_user_id"`
	Type           models.ReportType `json:"type"`
	Reason         string            `json:"reason"`
}

// Create admits a new report, persists it, and runs the auto-moderation
// check under the target lock. Notification fan-out happens after commit.
func (s *ReportService) Create(ctx context.Context, reporterID string, input CreateReportInput) (*ReportDTO, error) {
	ctx = ensureContext(ctx)

	reporterID = strings.TrimSpace(reporterID)
	if reporterID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	target, err := s.validator.ValidateCreate(ctx, reporterID, input)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(target.Key())
	defer unlock()

	// Re-check for a racing duplicate now that the target is locked.
	duplicate, err := s.validator.hasPendingDuplicate(ctx, reporterID, target)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, apperrors.ErrDuplicateReport
	}

	report := models.Report{
		ReporterID: reporterID,
		Type:       models.ReportType(strings.ToUpper(strings.TrimSpace(string(input.Type)))),
		Reason:     strings.TrimSpace(input.Reason),
		Status:     models.ReportStatusPending,
	}
	if target.Kind == models.TargetRecipe {
		id := target.ID
		report.RecipeID = &id
	} else {
		id := target.ID
		report.ReportedUserID = &id
	}

	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicateReport
		}
		return nil, fmt.Errorf("report service: create: %w", err)
	}

	// Auto-moderation runs after the creation commit, still under the target
	// lock. A failure here leaves the report queued for a human reviewer
	// instead of undoing the creation.
	autoResult, err := s.autoModerator.CheckTarget(ctx, s.db, &report)
	if err != nil {
		s.log.Error("auto-moderation check failed",
			zap.String("report_id", report.ID),
			zap.String("target", target.Key()),
			zap.Error(err))
		autoResult = nil
	}

	metrics.ReportsCreated.WithLabelValues(string(report.Type)).Inc()
	s.log.Info("report created",
		zap.String("report_id", report.ID),
		zap.String("target", target.Key()),
		zap.String("type", string(report.Type)),
		zap.Bool("auto_moderated", autoResult != nil))

	if autoResult != nil {
		s.notifier.NotifyAutoActionAsync(autoResult.Report, autoResult.Score)
	} else {
		s.notifier.NotifyAdminsNewReportAsync(&report)
	}
	s.broadcastPendingCount(ctx)

	dto := toReportDTO(&report)
	return &dto, nil
}

type ReportFilters struct {
	Page       int
	Size       int
	Status     string
	Type       string
	Action     string
	RecipeID   string
	UserID     string
	ReporterID string
	From       *time.Time
	To         *time.Time
}

// List returns reports newest first with optional filters.
func (s *ReportService) List(ctx context.Context, filters ReportFilters) ([]ReportDTO, int64, error) {
	ctx = ensureContext(ctx)
	page, size := normalizePagination(filters.Page, filters.Size, maxReportPageSize)

	query := s.db.WithContext(ctx).Model(&models.Report{})
	if status := strings.ToUpper(strings.TrimSpace(filters.Status)); status != "" {
		query = query.Where("status = ?", status)
	}
	if reportType := strings.ToUpper(strings.TrimSpace(filters.Type)); reportType != "" {
		query = query.Where("type = ?", reportType)
	}
	if action := strings.ToUpper(strings.TrimSpace(filters.Action)); action != "" {
		query = query.Where("action_taken = ?", action)
	}
	if id := strings.TrimSpace(filters.RecipeID); id != "" {
		query = query.Where("recipe_id = ?", id)
	}
	if id := strings.TrimSpace(filters.UserID); id != "" {
		query = query.Where("reported_user_id = ?", id)
	}
	if id := strings.TrimSpace(filters.ReporterID); id != "" {
		query = query.Where("reporter_id = ?", id)
	}
	if filters.From != nil {
		query = query.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("created_at <= ?", *filters.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("report service: count: %w", err)
	}

	var rows []models.Report
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("report service: list: %w", err)
	}

	out := make([]ReportDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toReportDTO(&rows[i]))
	}
	return out, total, nil
}

// GetByID loads one report with reporter context.
func (s *ReportService) GetByID(ctx context.Context, reportID string) (*ReportDTO, error) {
	ctx = ensureContext(ctx)

	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	dto := toReportDTO(report)
	if reporter, err := s.users.GetUser(ctx, report.ReporterID); err == nil {
		dto.ReporterUsername = reporter.Username
	}
	return &dto, nil
}

// ReviewReportInput is a moderator's decision on one report.
type ReviewReportInput struct {
	Action      models.ModerationAction `json:"action"`
	Founded     bool                    `json:"founded"`
	Description string                  `json:"description"`
}

// Review settles one report. The action is applied to the target, the report
// leaves PENDING per the status table, and every pending sibling against the
// same target settles identically in the same transaction.
func (s *ReportService) Review(ctx context.Context, reviewerID, reportID string, input ReviewReportInput) (*ReportDTO, error) {
	ctx = ensureContext(ctx)

	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !moderation.CanReview(report.Status) {
		return nil, apperrors.ErrAlreadyReviewed
	}

	target := report.Target()
	action, err := s.validateDecision(target, input)
	if err != nil {
		return nil, err
	}
	status, err := s.policy.StatusTable.StatusFor(action, input.Founded)
	if err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}

	unlock := s.locks.Lock(target.Key())
	defer unlock()

	settled, err := s.settle(ctx, reviewerID, target, action, status, input.Description, []string{report.ID})
	if err != nil {
		return nil, err
	}

	if action != models.ActionNone {
		metrics.ModerationActions.WithLabelValues(string(action), "manual").Inc()
	}
	s.notifier.DispatchReviewCompletedAsync(settled)
	s.broadcastPendingCount(ctx)

	dto := toReportDTO(settled)
	return &dto, nil
}

// BatchReviewByTarget settles every pending report against a target with one
// decision.
func (s *ReportService) BatchReviewByTarget(ctx context.Context, reviewerID string, target models.Target, input ReviewReportInput) (int64, error) {
	ctx = ensureContext(ctx)

	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" {
		return 0, apperrors.ErrUnauthorized
	}
	if target.ID == "" {
		return 0, apperrors.NewBadRequest("batch review target is required")
	}

	action, err := s.validateDecision(target, input)
	if err != nil {
		return 0, err
	}
	status, err := s.policy.StatusTable.StatusFor(action, input.Founded)
	if err != nil {
		return 0, apperrors.NewBadRequest(err.Error())
	}

	unlock := s.locks.Lock(target.Key())
	defer unlock()

	pendingQuery := s.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("status = ?", models.ReportStatusPending)
	pendingQuery = scopeToTarget(pendingQuery, target)

	var pending []models.Report
	if err := pendingQuery.Order("created_at ASC").Find(&pending).Error; err != nil {
		return 0, fmt.Errorf("report service: batch review: %w", err)
	}
	if len(pending) == 0 {
		return 0, apperrors.ErrNoPendingReports
	}

	ids := make([]string, 0, len(pending))
	for i := range pending {
		ids = append(ids, pending[i].ID)
	}

	settled, err := s.settle(ctx, reviewerID, target, action, status, input.Description, ids)
	if err != nil {
		return 0, err
	}

	if action != models.ActionNone {
		metrics.ModerationActions.WithLabelValues(string(action), "manual").Inc()
	}
	s.notifier.DispatchReviewCompletedAsync(settled)
	s.broadcastPendingCount(ctx)

	return int64(len(pending)), nil
}

// settle applies the action and closes the listed reports plus any pending
// siblings inside one transaction. The caller must hold the target lock.
// Writes against the report store are all-or-nothing; the action itself runs
// against external collaborators first and relies on their idempotence if
// the store write is retried.
func (s *ReportService) settle(ctx context.Context, reviewerID string, target models.Target, action models.ModerationAction, status models.ReportStatus, description string, reportIDs []string) (*models.Report, error) {
	actioned, err := targetAlreadyActioned(ctx, s.db, target)
	if err != nil {
		return nil, err
	}
	if action != models.ActionNone && !actioned {
		if err := s.executor.Execute(ctx, action, target); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	var settled models.Report
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&settled, "id = ?", reportIDs[0]).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrReportNotFound
			}
			return fmt.Errorf("report service: settle: %w", err)
		}
		if !moderation.CanReview(settled.Status) {
			return apperrors.ErrAlreadyReviewed
		}

		settled.Status = status
		settled.ActionTaken = &action
		settled.ActionDescription = strings.TrimSpace(description)
		settled.ReviewerID = &reviewerID
		settled.ReviewedAt = &now

		err := tx.Model(&models.Report{}).
			Where("id IN ?", reportIDs).
			Updates(map[string]interface{}{
				"status":             settled.Status,
				"action_taken":       settled.ActionTaken,
				"action_description": settled.ActionDescription,
				"reviewer_id":        reviewerID,
				"reviewed_at":        now,
			}).Error
		if err != nil {
			return fmt.Errorf("report service: settle: %w", err)
		}

		if _, err := s.synchronizer.Sync(ctx, tx, &settled); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reports settled",
		zap.String("target", target.Key()),
		zap.String("action", string(action)),
		zap.String("status", string(status)),
		zap.String("reviewer_id", reviewerID))
	return &settled, nil
}

// validateDecision checks the action against the taxonomy, the target kind,
// and the description requirement for user-visible actions.
func (s *ReportService) validateDecision(target models.Target, input ReviewReportInput) (models.ModerationAction, error) {
	action := models.ModerationAction(strings.ToUpper(strings.TrimSpace(string(input.Action))))
	if action == "" {
		action = models.ActionNone
	}
	if !action.Valid() {
		return "", apperrors.NewBadRequest(fmt.Sprintf("unknown moderation action %q", input.Action))
	}
	if action != models.ActionNone {
		if action.TargetsUser() != (target.Kind == models.TargetUser) {
			return "", apperrors.NewBadRequest(fmt.Sprintf("action %s does not apply to a %s target", action, target.Kind))
		}
		if strings.TrimSpace(input.Description) == "" {
			return "", apperrors.NewBadRequest("a description is required when taking an action")
		}
	}
	return action, nil
}

// Delete removes a report and every notification that references it.
func (s *ReportService) Delete(ctx context.Context, reportID string) error {
	ctx = ensureContext(ctx)

	report, err := s.loadReport(ctx, reportID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Report{}, "id = ?", report.ID).Error; err != nil {
		return fmt.Errorf("report service: delete: %w", err)
	}
	if _, err := s.notifications.DeleteRelated(ctx, report.ID); err != nil {
		s.log.Warn("related notification cleanup failed", zap.String("report_id", report.ID), zap.Error(err))
	}

	s.broadcastPendingCount(ctx)
	return nil
}

// ReportStatisticsDTO summarizes the moderation workload.
type ReportStatisticsDTO struct {
	Total         int64                              `json:"total"`
	Pending       int64                              `json:"pending"`
	Resolved      int64                              `json:"resolved"`
	Rejected      int64                              `json:"rejected"`
	AutoModerated int64                              `json:"auto_moderated"`
	ByType        map[models.ReportType]int64        `json:"by_type"`
	ByAction      map[models.ModerationAction]int64  `json:"by_action"`
}

// Statistics aggregates global report counts.
func (s *ReportService) Statistics(ctx context.Context) (*ReportStatisticsDTO, error) {
	ctx = ensureContext(ctx)

	stats := &ReportStatisticsDTO{
		ByType:   make(map[models.ReportType]int64),
		ByAction: make(map[models.ModerationAction]int64),
	}

	base := func() *gorm.DB { return s.db.WithContext(ctx).Model(&models.Report{}) }
	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("report service: statistics: %w", err)
	}
	if err := base().Where("status = ?", models.ReportStatusPending).Count(&stats.Pending).Error; err != nil {
		return nil, fmt.Errorf("report service: statistics: %w", err)
	}
	if err := base().Where("status = ?", models.ReportStatusResolved).Count(&stats.Resolved).Error; err != nil {
		return nil, fmt.Errorf("report service: statistics: %w", err)
	}
	if err := base().Where("status = ?", models.ReportStatusRejected).Count(&stats.Rejected).Error; err != nil {
		return nil, fmt.Errorf("report service: statistics: %w", err)
	}
	if err := base().Where("auto_moderated = ?", true).Count(&stats.AutoModerated).Error; err != nil {
		return nil, fmt.Errorf("report service: statistics: %w", err)
	}

	type typeRow struct {
		Type  models.ReportType
		Count int64
	}
	var typeRows []typeRow
	if err := base().Select("type, COUNT(*) as count").Group("type").Scan(&typeRows).Error; err != nil {
		return nil, fmt.Errorf("report service: statistics: %w", err)
	}
	for _, row := range typeRows {
		stats.ByType[row.Type] = row.Count
	}

	type actionRow struct {
		ActionTaken *models.ModerationAction
		Count       int64
	}
	var actionRows []actionRow
	err := base().
		Select("action_taken, COUNT(*) as count").
		Where("action_taken IS NOT NULL").
		Group("action_taken").
		Scan(&actionRows).Error
	if err != nil {
		return nil, fmt.Errorf("report service: statistics: %w", err)
	}
	for _, row := range actionRows {
		if row.ActionTaken != nil {
			stats.ByAction[*row.ActionTaken] = row.Count
		}
	}
	return stats, nil
}

// TargetStatisticsDTO is the per-target severity readout.
type TargetStatisticsDTO struct {
	Target           models.Target             `json:"target"`
	Total            int64                     `json:"total"`
	Pending          int64                     `json:"pending"`
	Score            float64                   `json:"score"`
	ExceedsThreshold bool                      `json:"exceeds_threshold"`
	Breakdown        map[models.ReportType]int `json:"breakdown"`
}

// TargetStatistics aggregates counts and the live severity score for one target.
func (s *ReportService) TargetStatistics(ctx context.Context, target models.Target) (*TargetStatisticsDTO, error) {
	ctx = ensureContext(ctx)
	if target.ID == "" {
		return nil, apperrors.NewBadRequest("target is required")
	}

	stats := &TargetStatisticsDTO{Target: target}

	totalQuery := scopeToTarget(s.db.WithContext(ctx).Model(&models.Report{}), target)
	if err := totalQuery.Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("report service: target statistics: %w", err)
	}

	pendingQuery := scopeToTarget(
		s.db.WithContext(ctx).Model(&models.Report{}).Where("status = ?", models.ReportStatusPending),
		target,
	)
	if err := pendingQuery.Count(&stats.Pending).Error; err != nil {
		return nil, fmt.Errorf("report service: target statistics: %w", err)
	}

	breakdown, err := pendingBreakdown(ctx, s.db, target)
	if err != nil {
		return nil, fmt.Errorf("report service: target statistics: %w", err)
	}
	stats.Breakdown = breakdown
	stats.Score = s.policy.WeightedScore(breakdown)
	stats.ExceedsThreshold = s.policy.Exceeds(stats.Score)
	return stats, nil
}

// PendingCount returns the size of the review backlog.
func (s *ReportService) PendingCount(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("status = ?", models.ReportStatusPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("report service: pending count: %w", err)
	}
	return count, nil
}

func (s *ReportService) loadReport(ctx context.Context, reportID string) (*models.Report, error) {
	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return nil, apperrors.ErrReportNotFound
	}

	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrReportNotFound
		}
		return nil, fmt.Errorf("report service: load: %w", err)
	}
	return &report, nil
}

func (s *ReportService) broadcastPendingCount(ctx context.Context) {
	count, err := s.PendingCount(ctx)
	if err != nil {
		s.log.Warn("pending count broadcast skipped", zap.Error(err))
		return
	}
	s.notifier.BroadcastPendingCount(count)
}

func toReportDTO(report *models.Report) ReportDTO {
	return ReportDTO{
		ID:                report.ID,
		ReporterID:        report.ReporterID,
		RecipeID:          report.RecipeID,
		ReportedUserID:    report.ReportedUserID,
		Target:            report.Target(),
		Type:              report.Type,
		Reason:            report.Reason,
		Status:            report.Status,
		ActionTaken:       report.ActionTaken,
		ActionDescription: report.ActionDescription,
		ReviewerID:        report.ReviewerID,
		ReviewedAt:        report.ReviewedAt,
		AutoModerated:     report.AutoModerated,
		CreatedAt:         report.CreatedAt,
	}
}
