package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeUnsupportedTarget, "target is not callable")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeUnsupportedTarget {
		t.Errorf("expected code %s, got %s", ErrCodeUnsupportedTarget, err.Code)
	}
	if err.Message != "target is not callable" {
		t.Errorf("expected message 'target is not callable', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, "operation failed", cause)

	if err.Code != ErrCodeInternal {
		t.Errorf("expected code %s, got %s", ErrCodeInternal, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("no such file")
	ctx := map[string]any{
		"path":   "config.ini",
		"format": "ini",
	}

	err := WrapWithContext(ErrCodeInvalidRequest, "failed to load input file", cause, ctx)

	if err.Code != ErrCodeInvalidRequest {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidRequest, err.Code)
	}
	if err.Context == nil {
		t.Fatal("expected context to be set")
	}
	if err.Context["path"] != "config.ini" {
		t.Errorf("expected path to be config.ini")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeMissingRequiredValue, "missing a"),
			expected: "[MISSING_REQUIRED_VALUE] missing a",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeInternal, "failed", errors.New("root cause")),
			expected: "[INTERNAL] failed: root cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(ErrCodeInternal, "wrapped", cause)

	unwrapped := err.Unwrap()
	if !errors.Is(unwrapped, cause) {
		t.Errorf("expected unwrapped error to be original cause")
	}

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should work with Unwrap")
	}
}

func TestCodeOfAndHasCode(t *testing.T) {
	inner := New(ErrCodeUnsupportedInputFormat, "unknown format xml")
	outer := Wrap(ErrCodeInvalidRequest, "loading input", inner)
	wrapped := fmt.Errorf("run: %w", outer)

	if got := CodeOf(wrapped); got != ErrCodeInvalidRequest {
		t.Errorf("CodeOf() = %s, want %s", got, ErrCodeInvalidRequest)
	}
	if !HasCode(wrapped, ErrCodeUnsupportedInputFormat) {
		t.Errorf("expected nested code to be found")
	}
	if HasCode(wrapped, ErrCodeMissingRequiredValue) {
		t.Errorf("unexpected code match")
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		ErrCodeUnintrospectableSignature,
		ErrCodeDocumentationMismatch,
		ErrCodeUnsupportedTarget,
		ErrCodeMissingRequiredValue,
		ErrCodeUnsupportedInputFormat,
		ErrCodeInvalidRequest,
		ErrCodeInternal,
	}

	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("error code should not be empty: %v", code)
		}
	}
}
