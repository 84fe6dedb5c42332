package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotFound, "resource not found")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "resource not found" {
		t.Errorf("expected message 'resource not found', got %s", err.Message)
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
	cause := errors.New("timeout")
	ctx := map[string]interface{}{
		"command": "virsh list --all",
		"target":  "nas-1",
	}

	err := WrapWithContext(ErrCodeTimeout, "vm poll failed", cause, ctx)

	if err.Code != ErrCodeTimeout {
		t.Errorf("expected code %s, got %s", ErrCodeTimeout, err.Code)
	}
	if err.Context == nil {
		t.Fatal("expected context to be set")
	}
	if err.Context["command"] != "virsh list --all" {
		t.Errorf("expected command to be virsh list --all")
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
			err:      New(ErrCodeNotFound, "not found"),
			expected: "[NOT_FOUND] not found",
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

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		ErrCodeNotFound,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeInvalidRequest,
		ErrCodeUnavailable,
		ErrCodeExecution,
		ErrCodeParse,
		ErrCodeInvalidConfig,
	}

	for _, code := range codes {
		if string(code) == "" {
			t.Errorf("error code should not be empty: %v", code)
		}
	}
}

func TestCodeOf(t *testing.T) {
	parse := Wrap(ErrCodeParse, "bad output", errors.New("eof"))
	wrapped := fmt.Errorf("collect memory: %w", parse)

	if got := CodeOf(wrapped); got != ErrCodeParse {
		t.Errorf("CodeOf() = %s, want %s", got, ErrCodeParse)
	}
	if got := CodeOf(errors.New("plain")); got != ErrCodeInternal {
		t.Errorf("CodeOf(plain) = %s, want %s", got, ErrCodeInternal)
	}
}

func TestHasCode(t *testing.T) {
	inner := New(ErrCodeExecution, "docker ps failed")
	outer := Wrap(ErrCodeTimeout, "container refresh", inner)

	if !HasCode(outer, ErrCodeExecution) {
		t.Error("expected nested execution code to be found")
	}
	if !HasCode(outer, ErrCodeTimeout) {
		t.Error("expected outer timeout code to be found")
	}
	if HasCode(outer, ErrCodeParse) {
		t.Error("did not expect parse code")
	}
	if HasCode(nil, ErrCodeParse) {
		t.Error("nil error has no code")
	}
}

func TestLogValue(t *testing.T) {
	err := WrapWithContext(ErrCodeExecution, "command failed", errors.New("exit status 1"),
		map[string]any{"command": "virsh list --all", "exitCode": 1})

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Warn("collector failed", "error", err)

	out := buf.String()
	for _, want := range []string{
		`"code":"EXECUTION_FAILED"`,
		`"message":"command failed"`,
		`"cause":"exit status 1"`,
		`"context":{"command":"virsh list --all","exitCode":1}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}
