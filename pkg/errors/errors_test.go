package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(cause, "failed")

	if got := err.Error(); got != "failed: boom" {
		t.Fatalf("unexpected error string: %s", got)
	}
	if err.Internal != cause {
		t.Fatal("expected the cause to be retained")
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", http.StatusBadRequest)

	with := base.WithInternal(stdErrors.New("oops"))
	if with == base || base.Internal != nil {
		t.Fatal("WithInternal must not mutate the shared sentinel")
	}
	if with.Internal == nil {
		t.Fatal("expected internal error to be set on the copy")
	}
}

func TestFromError(t *testing.T) {
	if out := FromError(ErrReportNotFound); out != ErrReportNotFound {
		t.Fatal("expected FromError to pass AppErrors through")
	}

	out := FromError(stdErrors.New("raw"))
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected unknown errors to collapse to %s, got %s", ErrInternalServer.Code, out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected the original error to be attached for logging")
	}
}

func TestModerationErrorStatusCodes(t *testing.T) {
	cases := map[*AppError]int{
		ErrSelfReport:       http.StatusBadRequest,
		ErrDuplicateReport:  http.StatusConflict,
		ErrAlreadyReviewed:  http.StatusConflict,
		ErrNoPendingReports: http.StatusNotFound,
		ErrTargetNotFound:   http.StatusNotFound,
		ErrReportNotFound:   http.StatusNotFound,
		ErrUnauthorized:     http.StatusUnauthorized,
		ErrForbidden:        http.StatusForbidden,
	}

	for err, want := range cases {
		if err.StatusCode != want {
			t.Fatalf("%s: expected status %d, got %d", err.Code, want, err.StatusCode)
		}
	}
}

func TestConstructors(t *testing.T) {
	bad := NewBadRequest("invalid payload")
	if bad.Code != ErrBadRequest.Code || bad.Message != "invalid payload" || bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected bad request error: %+v", bad)
	}

	missing := NewNotFound("no such report")
	if missing.StatusCode != http.StatusNotFound || missing.Message != "no such report" {
		t.Fatalf("unexpected not found error: %+v", missing)
	}
}
