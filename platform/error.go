package platform

import (
	"fmt"
	"strings"
)

// Error is a structured failure from the deployment platform, carrying the
// failing operation and a retryable-vs-fatal classification for callers.
// The client itself never retries.
type Error struct {
	Op         string `json:"op"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
	Cause      error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("platform: %s: %s (status %d)", e.Op, msg, e.StatusCode)
	}
	return fmt.Sprintf("platform: %s: %s", e.Op, msg)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// transportError wraps a network-level failure. Transport failures are
// retryable: the request may never have reached the platform.
func transportError(op string, cause error) *Error {
	return &Error{
		Op:        op,
		Message:   cause.Error(),
		Retryable: true,
		Cause:     cause,
	}
}

// statusError classifies an HTTP failure status. Server-side failures and
// throttling are retryable; client errors are fatal.
func statusError(op string, status int, message string) *Error {
	return &Error{
		Op:         op,
		StatusCode: status,
		Message:    message,
		Retryable:  status >= 500 || status == 429,
	}
}
