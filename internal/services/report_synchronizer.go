package services

import (
	"context"
	"fmt"

	"github.com/okastudio/platewatch/internal/models"
	"github.com/okastudio/platewatch/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReportSynchronizer propagates a settled review onto every other pending
// report against the same target, so one decision closes the whole backlog
// for that target.
type ReportSynchronizer struct {
	log *zap.Logger
}

func NewReportSynchronizer() *ReportSynchronizer {
	return &ReportSynchronizer{log: logger.WithModule("moderation.sync")}
}

// Sync copies the outcome of reviewed onto its pending siblings inside tx.
// It returns how many reports were closed alongside the reviewed one.
func (s *ReportSynchronizer) Sync(ctx context.Context, tx *gorm.DB, reviewed *models.Report) (int64, error) {
	ctx = ensureContext(ctx)

	target := reviewed.Target()
	if target.ID == "" {
		return 0, fmt.Errorf("report sync: report %s has no target", reviewed.ID)
	}

	query := tx.WithContext(ctx).
		Model(&models.Report{}).
		Where("id <> ? AND status = ?", reviewed.ID, models.ReportStatusPending)
	query = scopeToTarget(query, target)

	result := query.Updates(map[string]interface{}{
		"status":             reviewed.Status,
		"action_taken":       reviewed.ActionTaken,
		"action_description": reviewed.ActionDescription,
		"reviewer_id":        reviewed.ReviewerID,
		"reviewed_at":        reviewed.ReviewedAt,
		"auto_moderated":     reviewed.AutoModerated,
	})
	if result.Error != nil {
		return 0, fmt.Errorf("report sync: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.log.Info("synchronized sibling reports",
			zap.String("target", target.Key()),
			zap.String("report_id", reviewed.ID),
			zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}
