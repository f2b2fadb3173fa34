package models

import (
	"testing"
	"time"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	if err := base.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if base.ID == "" {
		t.Fatal("expected base model ID to be generated")
	}
}

func TestBaseModelBeforeCreateKeepsExplicitID(t *testing.T) {
	base := BaseModel{ID: "fixed"}
	if err := base.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if base.ID != "fixed" {
		t.Fatalf("expected explicit ID to survive, got %s", base.ID)
	}
}

func TestReportStatusTerminal(t *testing.T) {
	if ReportStatusPending.Terminal() {
		t.Fatal("PENDING must not be terminal")
	}
	if !ReportStatusResolved.Terminal() || !ReportStatusRejected.Terminal() {
		t.Fatal("RESOLVED and REJECTED must be terminal")
	}
}

func TestReportTargetResolution(t *testing.T) {
	recipeID := "recipe-1"
	userID := "user-1"

	recipeReport := Report{RecipeID: &recipeID}
	if target := recipeReport.Target(); target.Kind != TargetRecipe || target.ID != recipeID {
		t.Fatalf("unexpected recipe target: %+v", target)
	}

	userReport := Report{ReportedUserID: &userID}
	if target := userReport.Target(); target.Kind != TargetUser || target.ID != userID {
		t.Fatalf("unexpected user target: %+v", target)
	}

	if key := RecipeTarget(recipeID).Key(); key != "recipe:recipe-1" {
		t.Fatalf("unexpected target key: %s", key)
	}
}

func TestReportHasAction(t *testing.T) {
	var report Report
	if report.HasAction() {
		t.Fatal("report without action must not report one")
	}

	none := ActionNone
	report.ActionTaken = &none
	if report.HasAction() {
		t.Fatal("NONE is not a real action")
	}

	ban := ActionUserBanned
	report.ActionTaken = &ban
	if !report.HasAction() {
		t.Fatal("expected ban to count as an action")
	}
}

func TestReportTypeTaxonomy(t *testing.T) {
	if !ReportTypeHarassment.Valid() {
		t.Fatal("HARASSMENT must be part of the taxonomy")
	}
	if ReportType("GOSSIP").Valid() {
		t.Fatal("unknown types must be rejected")
	}
	if len(ReportTypes) != 5 {
		t.Fatalf("expected 5 report types, got %d", len(ReportTypes))
	}
}

func TestModerationActionHelpers(t *testing.T) {
	if !ActionUserBanned.TargetsUser() || ActionRecipeUnpublished.TargetsUser() {
		t.Fatal("TargetsUser misclassifies actions")
	}
	if ModerationAction("SHADOW_BAN").Valid() {
		t.Fatal("unknown actions must be rejected")
	}
}

func TestUserSuspended(t *testing.T) {
	now := time.Now()
	until := now.Add(time.Hour)
	user := User{SuspendedUntil: &until}
	if !user.Suspended(now) {
		t.Fatal("expected active suspension")
	}
	if user.Suspended(now.Add(2 * time.Hour)) {
		t.Fatal("expected suspension to lapse")
	}
}
