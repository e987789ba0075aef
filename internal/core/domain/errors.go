package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrInvalidRole  = errors.New("invalid role")

	// ErrUnauthenticated is the root of every "who are you" failure.
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	ErrTokenMalformed     = fmt.Errorf("%w: malformed token", ErrUnauthenticated)
	ErrTokenBadSignature  = fmt.Errorf("%w: invalid token signature", ErrUnauthenticated)
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrTokenRevoked       = fmt.Errorf("%w: token revoked", ErrUnauthenticated)

	// ErrForbidden is the root of every "you may not" failure.
	ErrForbidden        = errors.New("access forbidden")
	ErrProtectedAccount = fmt.Errorf("%w: account is protected", ErrForbidden)

	ErrValidation = errors.New("validation failed")

	ErrRecordStoreUnavailable = errors.New("record store not configured")
	ErrUpstream               = errors.New("record store request failed")
)

// ValidationError describes user-correctable input problems. It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Msg string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UpstreamError records a failed call to the record store: either a
// non-2xx answer (Status set) or a transport failure (Err set).
type UpstreamError struct {
	Status int
	Op     string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil && e.Status == 0 {
		return fmt.Sprintf("record store %s: %v", e.Op, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("record store %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("record store %s: status %d", e.Op, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
