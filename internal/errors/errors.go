package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Mimic error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"    // 401
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrInternal       ErrorCode = "INTERNAL"        // 500
	ErrUpstream       ErrorCode = "UPSTREAM"        // 502
)

// MimicError represents a structured error with code, status, and details.
type MimicError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *MimicError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *MimicError {
	return &MimicError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnauthorized creates a 401 error for requests that fail verification.
func NewUnauthorized(msg string) *MimicError {
	return &MimicError{
		Code:    ErrUnauthorized,
		Status:  401,
		Message: msg,
	}
}

// NewNoMessages creates a 404 error for a scope with no stored messages.
func NewNoMessages(scope string) *MimicError {
	return &MimicError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("no messages found for scope: %s", scope),
		Details: map[string]any{"scope": scope},
	}
}

// NewNotFound creates a 404 error for a missing resource.
func NewNotFound(identifier string) *MimicError {
	return &MimicError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewConflict creates a 409 error for a resource that already exists.
func NewConflict(msg string) *MimicError {
	return &MimicError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewUpstream creates a 502 error for failures reported by a remote service.
func NewUpstream(service string, err error) *MimicError {
	msg := service + " request failed"
	if err != nil {
		msg = fmt.Sprintf("%s request failed: %v", service, err)
	}
	return &MimicError{
		Code:    ErrUpstream,
		Status:  502,
		Message: msg,
		Details: map[string]any{"service": service},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *MimicError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &MimicError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error is (or wraps) a MimicError with the given code.
func Is(err error, code ErrorCode) bool {
	var mErr *MimicError
	if stderrors.As(err, &mErr) {
		return mErr.Code == code
	}
	return false
}

// As extracts a MimicError from err, wrapping anything else as INTERNAL.
func As(err error) *MimicError {
	var mErr *MimicError
	if stderrors.As(err, &mErr) {
		return mErr
	}
	return NewInternal(err)
}
