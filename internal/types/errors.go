package types

import (
	"errors"
	"fmt"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

const (
	// NoData means a series query found no samples in the required window.
	// Treated as "condition not met", never fatal for the invocation.
	ErrCodeNoData ErrorCode = "no_data"

	// Upstream provider failures are fatal for the invocation: no partial
	// verdicts are emitted and no state is mutated.
	ErrCodeUpstreamIndex       ErrorCode = "upstream_index_unavailable"
	ErrCodeUpstreamSky         ErrorCode = "upstream_sky_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"

	// State store failures. A firing verdict must never reach the notifier
	// if its state commit failed, so persist failures abort the cycle.
	ErrCodeStateLoad    ErrorCode = "state_load_failed"
	ErrCodeStatePersist ErrorCode = "state_persist_failed"
	// ErrCodeStateConflict signals a lost compare-and-swap race between two
	// overlapping invocations; the loser must not notify.
	ErrCodeStateConflict ErrorCode = "state_conflict"

	ErrCodeConfigInvalid      ErrorCode = "config_invalid"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected"
)

// AppError is the standard application error type used throughout the engine.
// All domain errors are expressed as AppError to enable consistent error
// classification and chain support.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the ErrorCode from an error chain. Errors that are not
// AppErrors map to ErrCodeInternalUnexpected.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalUnexpected
}

// IsNoData reports whether the error chain carries ErrCodeNoData.
func IsNoData(err error) bool {
	return CodeOf(err) == ErrCodeNoData
}
