package moderation

import (
	"fmt"

	"github.com/okastudio/platewatch/internal/models"
)

// Outcome maps reviewer intent onto the resulting report status for one action.
type Outcome struct {
	Founded   models.ReportStatus
	Unfounded models.ReportStatus
}

// StatusTable is the single source of truth for the report state machine. No
// other component derives a status from an action. Adding an action is a data
// change here, not new branching elsewhere.
type StatusTable map[models.ModerationAction]Outcome

// DefaultStatusTable encodes the production transition rules: hard actions
// (suspension, ban, unpublish) resolve the report regardless of reviewer
// intent; soft actions resolve only when the reviewer judged the report
// founded, and reject it otherwise.
func DefaultStatusTable() StatusTable {
	return StatusTable{
		models.ActionNone:               {Founded: models.ReportStatusResolved, Unfounded: models.ReportStatusRejected},
		models.ActionUserWarned:         {Founded: models.ReportStatusResolved, Unfounded: models.ReportStatusRejected},
		models.ActionRecipeEditRequired: {Founded: models.ReportStatusResolved, Unfounded: models.ReportStatusRejected},
		models.ActionUserSuspended:      {Founded: models.ReportStatusResolved, Unfounded: models.ReportStatusResolved},
		models.ActionUserBanned:         {Founded: models.ReportStatusResolved, Unfounded: models.ReportStatusResolved},
		models.ActionRecipeUnpublished:  {Founded: models.ReportStatusResolved, Unfounded: models.ReportStatusResolved},
	}
}

// StatusFor resolves the post-review status for an action and the reviewer's
// founded/unfounded judgement.
func (t StatusTable) StatusFor(action models.ModerationAction, founded bool) (models.ReportStatus, error) {
	outcome, ok := t[action]
	if !ok {
		return "", fmt.Errorf("moderation: no status mapping for action %s", action)
	}
	if founded {
		return outcome.Founded, nil
	}
	return outcome.Unfounded, nil
}

// CanReview reports whether a report in the given status accepts a review.
// Terminal states never transition again.
func CanReview(status models.ReportStatus) bool {
	return status == models.ReportStatusPending
}
