package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/okastudio/platewatch/internal/models"
)

// MessageContent is a rendered notification body. Builders in this file are
// pure so the wording can be unit tested without touching storage.
type MessageContent struct {
	Title   string
	Message string
}

func reportTypeLabel(t models.ReportType) string {
	switch t {
	case models.ReportTypeSpam:
		return "spam"
	case models.ReportTypeInappropriate:
		return "inappropriate content"
	case models.ReportTypeCopyright:
		return "copyright infringement"
	case models.ReportTypeHarassment:
		return "harassment"
	default:
		return "other concerns"
	}
}

func newReportAdminMessage(report *models.Report, targetLabel string) MessageContent {
	return MessageContent{
		Title:   "New report submitted",
		Message: fmt.Sprintf("%s was reported for %s.", targetLabel, reportTypeLabel(report.Type)),
	}
}

func reviewCompletedMessage(report *models.Report, targetLabel string) MessageContent {
	outcome := "reviewed and dismissed"
	if report.Status == models.ReportStatusResolved {
		outcome = "reviewed and action has been taken"
	}
	return MessageContent{
		Title:   "Your report has been reviewed",
		Message: fmt.Sprintf("Your report about %s has been %s. Thank you for helping keep the community safe.", targetLabel, outcome),
	}
}

func warningMessage(reason string) MessageContent {
	msg := "A moderator has reviewed reports about your account and issued a warning. Please review our community guidelines."
	if reason = strings.TrimSpace(reason); reason != "" {
		msg = fmt.Sprintf("A moderator has issued a warning for your account: %s", reason)
	}
	return MessageContent{Title: "Account warning", Message: msg}
}

func accountSuspendedMessage(until time.Time, reason string) MessageContent {
	msg := fmt.Sprintf("Your account has been suspended until %s.", until.Format("January 2, 2006"))
	if reason = strings.TrimSpace(reason); reason != "" {
		msg = fmt.Sprintf("%s Reason: %s", msg, reason)
	}
	return MessageContent{Title: "Account suspended", Message: msg}
}

func accountBannedMessage(reason string) MessageContent {
	msg := "Your account has been permanently disabled following a moderation review."
	if reason = strings.TrimSpace(reason); reason != "" {
		msg = fmt.Sprintf("%s Reason: %s", msg, reason)
	}
	return MessageContent{Title: "Account disabled", Message: msg}
}

func recipeEditRequiredMessage(recipeTitle, reason string) MessageContent {
	msg := fmt.Sprintf("Your recipe %q needs changes before it can remain published.", recipeTitle)
	if reason = strings.TrimSpace(reason); reason != "" {
		msg = fmt.Sprintf("%s Moderator note: %s", msg, reason)
	}
	return MessageContent{Title: "Recipe changes required", Message: msg}
}

func contentRemovedMessage(recipeTitle, reason string) MessageContent {
	msg := fmt.Sprintf("Your recipe %q has been unpublished following a moderation review.", recipeTitle)
	if reason = strings.TrimSpace(reason); reason != "" {
		msg = fmt.Sprintf("%s Reason: %s", msg, reason)
	}
	return MessageContent{Title: "Recipe unpublished", Message: msg}
}

func actionCompletedAdminMessage(report *models.Report, targetLabel string) MessageContent {
	action := models.ActionNone
	if report.ActionTaken != nil {
		action = *report.ActionTaken
	}
	return MessageContent{
		Title:   "Moderation action completed",
		Message: fmt.Sprintf("Reports about %s were settled with action %s.", targetLabel, action),
	}
}

func autoUserDisabledMessage(targetLabel string, score float64) MessageContent {
	return MessageContent{
		Title:   "Automatic moderation: account disabled",
		Message: fmt.Sprintf("%s was automatically disabled after accumulated reports reached a severity score of %g. Review recommended.", targetLabel, score),
	}
}

func autoRecipeUnpublishedMessage(targetLabel string, score float64) MessageContent {
	return MessageContent{
		Title:   "Automatic moderation: recipe unpublished",
		Message: fmt.Sprintf("%s was automatically unpublished after accumulated reports reached a severity score of %g. Review recommended.", targetLabel, score),
	}
}
