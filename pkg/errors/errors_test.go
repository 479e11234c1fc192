package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	meta := MetadataFor(CodeInsufficientCredit)
	if meta.HTTPStatus != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: %d", meta.HTTPStatus)
	}
	if !meta.DetailsAllowed {
		t.Fatal("insufficient credit should allow details")
	}

	fallback := MetadataFor(Code("UNKNOWN"))
	if fallback.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes should map to internal, got %d", fallback.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("balance row missing")
	err := Wrap(CodeDependency, cause, "reading credit balance")

	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped error should match its cause")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code: %s", err.Code())
	}
}

func TestAsThroughWrapping(t *testing.T) {
	inner := New(CodePartialCommit, "inventory step failed").
		WithDetails(map[string]any{"step": "inventory", "sale_id": "abc"})
	outer := fmt.Errorf("commit: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error through fmt wrapping")
	}
	if typed.Code() != CodePartialCommit {
		t.Fatalf("unexpected code: %s", typed.Code())
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["step"] != "inventory" {
		t.Fatalf("details lost through wrapping: %#v", typed.Details())
	}
}

func TestAsNonTyped(t *testing.T) {
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("plain errors should not convert")
	}
	if As(nil) != nil {
		t.Fatal("nil should not convert")
	}
}
