package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okastudio/platewatch/internal/models"
	"github.com/okastudio/platewatch/internal/moderation"
	"github.com/okastudio/platewatch/internal/realtime"
	"github.com/okastudio/platewatch/pkg/logger"
	"github.com/okastudio/platewatch/pkg/metrics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const asyncDispatchTimeout = 30 * time.Second

// DeliveryReport summarizes a notification fan-out. A failed recipient never
// blocks the others; Err aggregates every per-recipient failure.
type DeliveryReport struct {
	Sent   int
	Failed int
	Err    error
}

// NotificationSink receives rendered notifications. NotificationService is
// the production sink.
type NotificationSink interface {
	Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error)
}

// Notifier owns the moderation notification fan-out: who hears about a
// report event and what they are told. Delivery is per-recipient isolated
// and never participates in the review transaction.
type Notifier struct {
	db            *gorm.DB
	notifications NotificationSink
	users         UserDirectory
	recipes       RecipeCatalog
	hub           *realtime.Hub
	policy        moderation.Policy
	log           *zap.Logger
}

func NewNotifier(db *gorm.DB, notifications NotificationSink, users UserDirectory, recipes RecipeCatalog, hub *realtime.Hub, policy moderation.Policy) (*Notifier, error) {
	if db == nil {
		return nil, errors.New("notifier requires database handle")
	}
	if notifications == nil {
		return nil, errors.New("notifier requires notification service")
	}
	if users == nil || recipes == nil {
		return nil, errors.New("notifier requires user and recipe collaborators")
	}
	return &Notifier{
		db:            db,
		notifications: notifications,
		users:         users,
		recipes:       recipes,
		hub:           hub,
		policy:        policy,
		log:           logger.WithModule("moderation.notifier"),
	}, nil
}

// NotifyAdminsNewReport tells every active admin a report came in.
func (n *Notifier) NotifyAdminsNewReport(ctx context.Context, report *models.Report) DeliveryReport {
	ctx = ensureContext(ctx)

	admins, err := n.users.ListAdminIDs(ctx)
	if err != nil {
		n.log.Error("admin lookup failed", zap.Error(err))
		return DeliveryReport{Err: err}
	}
	content := newReportAdminMessage(report, n.targetLabel(ctx, report))
	return n.deliver(ctx, admins, models.NotificationNewReport, content, &report.ID, nil)
}

// NotifyReporters tells every distinct reporter of the settled target that
// their report has been reviewed.
func (n *Notifier) NotifyReporters(ctx context.Context, report *models.Report) DeliveryReport {
	ctx = ensureContext(ctx)

	target := report.Target()
	if target.ID == "" {
		return DeliveryReport{Err: fmt.Errorf("notifier: report %s has no target", report.ID)}
	}

	var reporterIDs []string
	query := n.db.WithContext(ctx).
		Model(&models.Report{}).
		Distinct("reporter_id")
	query = scopeToTarget(query, target)
	if err := query.Pluck("reporter_id", &reporterIDs).Error; err != nil {
		n.log.Error("reporter lookup failed", zap.String("target", target.Key()), zap.Error(err))
		return DeliveryReport{Err: fmt.Errorf("notifier: reporter lookup: %w", err)}
	}

	content := reviewCompletedMessage(report, n.targetLabel(ctx, report))
	return n.deliver(ctx, reporterIDs, models.NotificationReportReview, content, &report.ID, nil)
}

// NotifyActionTaken tells the affected party what happened to their account
// or recipe. NONE carries no recipient.
func (n *Notifier) NotifyActionTaken(ctx context.Context, report *models.Report) DeliveryReport {
	ctx = ensureContext(ctx)
	if !report.HasAction() {
		return DeliveryReport{}
	}
	action := *report.ActionTaken

	target := report.Target()
	if target.ID == "" {
		return DeliveryReport{Err: fmt.Errorf("notifier: report %s has no target", report.ID)}
	}

	var (
		recipient string
		typ       models.NotificationType
		content   MessageContent
	)
	switch action {
	case models.ActionUserWarned:
		recipient = target.ID
		typ = models.NotificationWarning
		content = warningMessage(report.ActionDescription)
	case models.ActionUserSuspended:
		recipient = target.ID
		typ = models.NotificationAccountStatus
		until := time.Now().UTC().AddDate(0, 0, n.policy.SuspensionDays)
		content = accountSuspendedMessage(until, report.ActionDescription)
	case models.ActionUserBanned:
		recipient = target.ID
		typ = models.NotificationAccountStatus
		content = accountBannedMessage(report.ActionDescription)
	case models.ActionRecipeUnpublished, models.ActionRecipeEditRequired:
		recipe, err := n.recipes.GetRecipe(ctx, target.ID)
		if err != nil {
			n.log.Error("recipe lookup failed", zap.String("target", target.Key()), zap.Error(err))
			return DeliveryReport{Err: err}
		}
		recipient = recipe.AuthorID
		typ = models.NotificationRecipeStatus
		if action == models.ActionRecipeUnpublished {
			content = contentRemovedMessage(recipe.Title, report.ActionDescription)
		} else {
			content = recipeEditRequiredMessage(recipe.Title, report.ActionDescription)
		}
	default:
		return DeliveryReport{}
	}

	return n.deliver(ctx, []string{recipient}, typ, content, &report.ID, nil)
}

// NotifyAdminsActionCompleted closes the loop for the moderation team.
func (n *Notifier) NotifyAdminsActionCompleted(ctx context.Context, report *models.Report) DeliveryReport {
	ctx = ensureContext(ctx)

	admins, err := n.users.ListAdminIDs(ctx)
	if err != nil {
		n.log.Error("admin lookup failed", zap.Error(err))
		return DeliveryReport{Err: err}
	}
	content := actionCompletedAdminMessage(report, n.targetLabel(ctx, report))
	return n.deliver(ctx, admins, models.NotificationSystem, content, &report.ID, nil)
}

// DispatchReviewCompleted runs the full post-review fan-out: reporters, the
// affected party, then the moderation team.
func (n *Notifier) DispatchReviewCompleted(ctx context.Context, report *models.Report) DeliveryReport {
	ctx = ensureContext(ctx)

	var total DeliveryReport
	total.merge(n.NotifyReporters(ctx, report))
	total.merge(n.NotifyActionTaken(ctx, report))
	total.merge(n.NotifyAdminsActionCompleted(ctx, report))
	return total
}

// DispatchReviewCompletedAsync runs DispatchReviewCompleted on its own
// goroutine with a detached context, so notification latency never holds a
// review response.
func (n *Notifier) DispatchReviewCompletedAsync(report *models.Report) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncDispatchTimeout)
		defer cancel()

		result := n.DispatchReviewCompleted(ctx, report)
		n.logDelivery("review fan-out", report.ID, result)
	}()
}

// NotifyAdminsNewReportAsync is the post-create counterpart.
func (n *Notifier) NotifyAdminsNewReportAsync(report *models.Report) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncDispatchTimeout)
		defer cancel()

		result := n.NotifyAdminsNewReport(ctx, report)
		n.logDelivery("new report fan-out", report.ID, result)
	}()
}

// NotifyAutoAction announces a threshold-triggered action to admins and the
// affected party.
func (n *Notifier) NotifyAutoAction(ctx context.Context, report *models.Report, score float64) DeliveryReport {
	ctx = ensureContext(ctx)
	if !report.HasAction() {
		return DeliveryReport{}
	}

	label := n.targetLabel(ctx, report)
	var content MessageContent
	if (*report.ActionTaken).TargetsUser() {
		content = autoUserDisabledMessage(label, score)
	} else {
		content = autoRecipeUnpublishedMessage(label, score)
	}

	var total DeliveryReport
	admins, err := n.users.ListAdminIDs(ctx)
	if err != nil {
		n.log.Error("admin lookup failed", zap.Error(err))
		total.Err = multierr.Append(total.Err, err)
	} else {
		total.merge(n.deliver(ctx, admins, models.NotificationSystem, content, &report.ID,
			map[string]interface{}{"score": score, "auto": true}))
	}

	total.merge(n.NotifyActionTaken(ctx, report))
	total.merge(n.NotifyReporters(ctx, report))
	return total
}

// NotifyAutoActionAsync is the detached variant used after the creation
// transaction commits.
func (n *Notifier) NotifyAutoActionAsync(report *models.Report, score float64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncDispatchTimeout)
		defer cancel()

		result := n.NotifyAutoAction(ctx, report, score)
		n.logDelivery("auto-moderation fan-out", report.ID, result)
	}()
}

// BroadcastPendingCount pushes the current review backlog to subscribed
// admin dashboards. Best effort: a stale dashboard converges on its next
// refresh.
func (n *Notifier) BroadcastPendingCount(count int64) {
	metrics.PendingReports.Set(float64(count))
	if n.hub == nil {
		return
	}
	n.hub.BroadcastStream(realtime.StreamModeration, realtime.Message{
		Stream: realtime.StreamModeration,
		Event:  "moderation.pending_count",
		Data:   map[string]int64{"pending": count},
	})
}

// deliver writes one notification per recipient. A failing recipient is
// recorded and skipped; the loop always reaches everyone else.
func (n *Notifier) deliver(ctx context.Context, recipients []string, typ models.NotificationType, content MessageContent, relatedID *string, metadata map[string]interface{}) DeliveryReport {
	var report DeliveryReport
	for _, recipient := range uniqueIDs(recipients) {
		_, err := n.notifications.Create(ctx, CreateNotificationInput{
			UserID:    recipient,
			Type:      typ,
			Content:   content,
			RelatedID: relatedID,
			Metadata:  metadata,
		})
		if err != nil {
			report.Failed++
			report.Err = multierr.Append(report.Err, fmt.Errorf("recipient %s: %w", recipient, err))
			metrics.NotificationDeliveries.WithLabelValues("failed").Inc()
			n.log.Error("notification delivery failed",
				zap.String("recipient", recipient),
				zap.String("type", string(typ)),
				zap.Error(err))
			continue
		}
		report.Sent++
		metrics.NotificationDeliveries.WithLabelValues("sent").Inc()
	}
	return report
}

func (n *Notifier) targetLabel(ctx context.Context, report *models.Report) string {
	target := report.Target()
	if target.ID == "" {
		return "unknown target"
	}
	switch target.Kind {
	case models.TargetRecipe:
		if recipe, err := n.recipes.GetRecipe(ctx, target.ID); err == nil {
			return fmt.Sprintf("recipe %q", recipe.Title)
		}
	case models.TargetUser:
		if user, err := n.users.GetUser(ctx, target.ID); err == nil {
			return fmt.Sprintf("user @%s", user.Username)
		}
	}
	return target.Key()
}

func (r *DeliveryReport) merge(other DeliveryReport) {
	r.Sent += other.Sent
	r.Failed += other.Failed
	r.Err = multierr.Append(r.Err, other.Err)
}

func (n *Notifier) logDelivery(what, reportID string, result DeliveryReport) {
	fields := []zap.Field{
		zap.String("report_id", reportID),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	}
	if result.Err != nil {
		fields = append(fields, zap.Error(result.Err))
		n.log.Warn(what+" finished with failures", fields...)
		return
	}
	n.log.Info(what+" finished", fields...)
}
