package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidScene, "unknown parent: %s", "panel")

	if err.Code != ErrCodeInvalidScene {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidScene)
	}

	if err.Message != "unknown parent: panel" {
		t.Errorf("Message = %v, want %v", err.Message, "unknown parent: panel")
	}

	expected := "INVALID_SCENE: unknown parent: panel"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("assertion failed")
	err := Wrap(ErrCodeInvariant, cause, "set children of node %d", 7)

	if err.Code != ErrCodeInvariant {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvariant)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	expected := "INVARIANT_VIOLATION: set children of node 7: assertion failed"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeNotFound, "test"),
			code:     ErrCodeNotFound,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeNotFound, "test"),
			code:     ErrCodeInvariant,
			expected: false,
		},
		{
			name:     "outermost code wins",
			err:      Wrap(ErrCodeInvariant, New(ErrCodeNotFound, "inner"), "outer"),
			code:     ErrCodeInvariant,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("frame 3: %w", New(ErrCodeInvariant, "bad child")),
			code:     ErrCodeInvariant,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"structured", New(ErrCodeTimeout, "slow"), ErrCodeTimeout},
		{"wrapped", fmt.Errorf("ctx: %w", New(ErrCodeNetwork, "down")), ErrCodeNetwork},
		{"plain", errors.New("plain"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "frames must be positive")); got != "frames must be positive" {
		t.Errorf("UserMessage() = %q, want %q", got, "frames must be positive")
	}
	if got := UserMessage(errors.New("boom")); got != "boom" {
		t.Errorf("UserMessage() = %q, want %q", got, "boom")
	}
}

func TestPredicates(t *testing.T) {
	notFound := New(ErrCodeNotFound, "no layout node")
	invariant := New(ErrCodeInvariant, "duplicate child")

	if !IsNotFound(notFound) || IsNotFound(invariant) {
		t.Error("IsNotFound() misclassified")
	}
	if !IsInvariant(invariant) || IsInvariant(notFound) {
		t.Error("IsInvariant() misclassified")
	}
}
