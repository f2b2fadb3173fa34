package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type testPayload struct {
	ReporterID string `json:"reporter_id" validate:"required"`
	ReportType string `json:"report_type" validate:"required,oneof=SPAM HARASSMENT"`
	Page       int    `json:"page" validate:"gte=1"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := testPayload{
		ReporterID: "user-1",
		ReportType: "SPAM",
		Page:       1,
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	payload := testPayload{
		ReporterID: "",
		ReportType: "GOSSIP",
		Page:       0,
	}

	err := ValidateStruct(payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	if len(vErrs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d", len(vErrs))
	}

	foundType := false
	for _, v := range vErrs {
		if v.Field == "report_type" {
			foundType = true
		}
	}

	if !foundType {
		t.Fatal("expected report_type field to be present in validation errors")
	}
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("is_even", func(fl validator.FieldLevel) bool {
		return fl.Field().Int()%2 == 0
	})
	if err != nil {
		t.Fatalf("RegisterValidation returned error: %v", err)
	}

	type payload struct {
		Count int `json:"count" validate:"is_even"`
	}

	if err := ValidateStruct(payload{Count: 2}); err != nil {
		t.Fatalf("expected even value to pass, got %v", err)
	}
	if err := ValidateStruct(payload{Count: 3}); err == nil {
		t.Fatal("expected odd value to fail validation")
	}
}
