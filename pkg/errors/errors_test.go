package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(CodeInternal, cause, "persist users document")

	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped error must unwrap to its cause")
	}
	if err.Code() != CodeInternal {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	inner := New(CodeNotFound, "order not found")
	outer := fmt.Errorf("loading order: %w", inner)

	if !IsCode(outer, CodeNotFound) {
		t.Fatal("IsCode must see through fmt wrapping")
	}
	if IsCode(outer, CodeConflict) {
		t.Fatal("IsCode matched the wrong code")
	}
	if IsCode(nil, CodeNotFound) {
		t.Fatal("nil error carries no code")
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("MADE_UP"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes must map to 500, got %d", meta.HTTPStatus)
	}
}

func TestMetadataStatuses(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeRateLimit, http.StatusTooManyRequests},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s) = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed").WithDetails(map[string]string{"email": "must be a valid email"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["email"] == "" {
		t.Fatalf("unexpected details %v", err.Details())
	}
}
