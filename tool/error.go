package tool

import (
	"fmt"
	"strings"
)

const (
	// ErrCodeInvalidArgument is returned when tool inputs fail boundary
	// validation before any model code runs.
	ErrCodeInvalidArgument = "INVALID_ARGUMENT"
	// ErrCodeManifestInvalid is returned when a manifest fails local
	// construction, parsing, or validation.
	ErrCodeManifestInvalid = "MANIFEST_INVALID"
	// ErrCodePlatformFailure is returned when the deployment platform
	// reports or causes a failure.
	ErrCodePlatformFailure = "PLATFORM_FAILURE"
	// ErrCodeScaffoldFailed is returned when project generation fails.
	ErrCodeScaffoldFailed = "SCAFFOLD_FAILED"
	// ErrCodeToolNotFound is returned when an unknown tool is invoked.
	ErrCodeToolNotFound = "TOOL_NOT_FOUND"
	// ErrCodeInvocationFailed is the generic fallback code.
	ErrCodeInvocationFailed = "INVOCATION_FAILED"
)

// Error is a structured invocation failure that crosses the tool boundary
// without losing its machine-readable code or retryability.
type Error struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
	Cause     error          `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	code := strings.TrimSpace(e.Code)
	msg := strings.TrimSpace(e.Message)
	switch {
	case code == "" && msg == "":
		return ErrCodeInvocationFailed
	case code == "":
		return msg
	case msg == "":
		return code
	default:
		return fmt.Sprintf("%s: %s", code, msg)
	}
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(code, message string, retryable bool, cause error) *Error {
	cleanCode := strings.TrimSpace(code)
	if cleanCode == "" {
		cleanCode = ErrCodeInvocationFailed
	}
	cleanMsg := strings.TrimSpace(message)
	if cleanMsg == "" && cause != nil {
		cleanMsg = cause.Error()
	}
	return &Error{
		Code:      cleanCode,
		Message:   cleanMsg,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ArgumentError reports a tool input that failed boundary validation.
type ArgumentError struct {
	Field   string
	Message string
}

func (e *ArgumentError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Message)
}

func argumentError(field, format string, args ...any) *ArgumentError {
	return &ArgumentError{Field: field, Message: fmt.Sprintf(format, args...)}
}
