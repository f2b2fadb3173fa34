package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okastudio/platewatch/internal/models"
	"github.com/okastudio/platewatch/internal/moderation"
	"github.com/okastudio/platewatch/pkg/logger"
	"github.com/okastudio/platewatch/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoModerationResult describes a threshold-triggered action so the caller
// can run the notification fan-out after its transaction commits.
type AutoModerationResult struct {
	Action models.ModerationAction
	Score  float64
	Report *models.Report
}

// AutoModerator evaluates a target's accumulated report severity after every
// new report and, past the threshold, applies the hard action for the target
// kind without waiting for a human reviewer.
type AutoModerator struct {
	policy       moderation.Policy
	executor     *ActionExecutor
	synchronizer *ReportSynchronizer
	log          *zap.Logger
}

func NewAutoModerator(policy moderation.Policy, executor *ActionExecutor, synchronizer *ReportSynchronizer) (*AutoModerator, error) {
	if executor == nil || synchronizer == nil {
		return nil, errors.New("auto moderator requires executor and synchronizer")
	}
	return &AutoModerator{
		policy:       policy,
		executor:     executor,
		synchronizer: synchronizer,
		log:          logger.WithModule("moderation.auto"),
	}, nil
}

// CheckTarget runs the threshold evaluation for the trigger report's target.
// The caller must hold the target lock; the trigger row must already be
// committed. Ordering matches a manual review: the action runs against the
// collaborators first, then the settlement writes happen in their own
// transaction. Drivers that serialize writers (file-backed sqlite) would
// block the collaborator write if it ran while the creation transaction
// still held the lock. A nil result means no action fired.
func (m *AutoModerator) CheckTarget(ctx context.Context, db *gorm.DB, trigger *models.Report) (*AutoModerationResult, error) {
	ctx = ensureContext(ctx)
	if !m.policy.AutoModeration {
		return nil, nil
	}

	target := trigger.Target()
	if target.ID == "" {
		return nil, fmt.Errorf("auto moderator: report %s has no target", trigger.ID)
	}

	actioned, err := targetAlreadyActioned(ctx, db, target)
	if err != nil {
		return nil, err
	}
	if actioned {
		return nil, nil
	}

	breakdown, err := pendingBreakdown(ctx, db, target)
	if err != nil {
		return nil, err
	}
	score := m.policy.WeightedScore(breakdown)
	if !m.policy.Exceeds(score) {
		return nil, nil
	}

	action := models.ActionRecipeUnpublished
	if target.Kind == models.TargetUser {
		action = models.ActionUserBanned
	}

	if err := m.executor.Execute(ctx, action, target); err != nil {
		return nil, fmt.Errorf("auto moderator: %w", err)
	}

	now := time.Now().UTC()
	status, err := m.policy.StatusTable.StatusFor(action, true)
	if err != nil {
		return nil, fmt.Errorf("auto moderator: %w", err)
	}
	trigger.Status = status
	trigger.ActionTaken = &action
	trigger.ActionDescription = fmt.Sprintf("Automatic action: accumulated report severity reached %g", score)
	trigger.ReviewedAt = &now
	trigger.AutoModerated = true

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Report{}).
			Where("id = ?", trigger.ID).
			Updates(map[string]interface{}{
				"status":             trigger.Status,
				"action_taken":       trigger.ActionTaken,
				"action_description": trigger.ActionDescription,
				"reviewed_at":        trigger.ReviewedAt,
				"auto_moderated":     true,
			}).Error
		if err != nil {
			return fmt.Errorf("auto moderator: settle trigger report: %w", err)
		}

		if _, err := m.synchronizer.Sync(ctx, tx, trigger); err != nil {
			return fmt.Errorf("auto moderator: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ModerationActions.WithLabelValues(string(action), "auto").Inc()
	m.log.Warn("auto-moderation fired",
		zap.String("target", target.Key()),
		zap.String("action", string(action)),
		zap.Float64("score", score),
		zap.Float64("threshold", m.policy.Threshold))

	return &AutoModerationResult{Action: action, Score: score, Report: trigger}, nil
}

// targetAlreadyActioned reports whether any report on the target already
// carries a real action. At most one action is ever applied per target.
func targetAlreadyActioned(ctx context.Context, db *gorm.DB, target models.Target) (bool, error) {
	query := db.WithContext(ctx).
		Model(&models.Report{}).
		Where("action_taken IS NOT NULL AND action_taken <> ?", models.ActionNone)
	query = scopeToTarget(query, target)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("actioned check: %w", err)
	}
	return count > 0, nil
}

// pendingBreakdown builds the report-type histogram over the target's open
// reports.
func pendingBreakdown(ctx context.Context, db *gorm.DB, target models.Target) (map[models.ReportType]int, error) {
	type row struct {
		Type  models.ReportType
		Count int
	}
	var rows []row

	query := db.WithContext(ctx).
		Model(&models.Report{}).
		Select("type, COUNT(*) as count").
		Where("status = ?", models.ReportStatusPending)
	query = scopeToTarget(query, target)
	if err := query.Group("type").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("pending breakdown: %w", err)
	}

	breakdown := make(map[models.ReportType]int, len(rows))
	for _, r := range rows {
		breakdown[r.Type] = r.Count
	}
	return breakdown, nil
}
