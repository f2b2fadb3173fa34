package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/okastudio/platewatch/internal/models"
)

func TestReviewCompletedMessageWording(t *testing.T) {
	resolved := &models.Report{Status: models.ReportStatusResolved}
	rejected := &models.Report{Status: models.ReportStatusRejected}

	require.Contains(t, reviewCompletedMessage(resolved, "recipe \"X\"").Message, "action has been taken")
	require.Contains(t, reviewCompletedMessage(rejected, "recipe \"X\"").Message, "dismissed")
}

func TestActionMessagesCarryModeratorNote(t *testing.T) {
	require.Contains(t, warningMessage("stop it").Message, "stop it")
	require.Contains(t, accountBannedMessage("repeat offender").Message, "repeat offender")
	require.Contains(t, recipeEditRequiredMessage("Pancakes", "fix title").Message, "Pancakes")
	require.Contains(t, recipeEditRequiredMessage("Pancakes", "fix title").Message, "fix title")
	require.Contains(t, contentRemovedMessage("Pancakes", "").Message, "Pancakes")

	until := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	msg := accountSuspendedMessage(until, "")
	require.Contains(t, msg.Message, "March 15, 2026")
}

func TestMessagesOmitEmptyReason(t *testing.T) {
	require.NotContains(t, warningMessage("  ").Message, "Reason")
	require.NotContains(t, accountBannedMessage("").Message, "Reason:")
}

func TestAutoMessagesFormatScore(t *testing.T) {
	msg := autoUserDisabledMessage("user @spammer", 15)
	require.Contains(t, msg.Message, "15")
	require.Contains(t, msg.Message, "user @spammer")

	msg = autoRecipeUnpublishedMessage("recipe \"Glue Pizza\"", 12)
	require.Contains(t, msg.Message, "12")
}

func TestReportTypeLabels(t *testing.T) {
	for _, reportType := range models.ReportTypes {
		require.NotEmpty(t, reportTypeLabel(reportType))
	}
	require.Equal(t, "other concerns", reportTypeLabel("SOMETHING_NEW"))
}
