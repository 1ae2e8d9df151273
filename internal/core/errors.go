package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeMalformed        = "malformed_message"
	ErrCodeUnknownType      = "unknown_type"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeInvalidState     = "invalid_state"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeUnavailable      = "unavailable"
)

// ErrHubStopped is returned by hub queries after Run has returned.
var ErrHubStopped = errors.New("hub stopped")

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

func invalidState(format string, args ...any) *CoreError {
	return coreError(ErrCodeInvalidState, fmt.Sprintf(format, args...))
}

func permissionDenied() *CoreError {
	return coreError(ErrCodePermissionDenied, "Insufficient permission.")
}

func errAlreadyInRoom() *CoreError { return invalidState("You are already in a room.") }

func errNotInRoom() *CoreError { return invalidState("You are not in a room.") }

func errUnauthorized(msg string) *CoreError { return coreError(ErrCodeUnauthorized, msg) }
