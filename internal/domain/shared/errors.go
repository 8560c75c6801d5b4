// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrExpired         = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "application", "member", "audit"
	Op      string // Operation that failed, e.g., "Submit", "Accept"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Application domain errors
var (
	ErrApplicationNotFound = NewDomainError("application", "Find", ErrNotFound, "application not found")
	ErrDuplicatePending    = NewDomainError("application", "Submit", ErrAlreadyExists, "applicant already has a pending application")
	ErrNotPending          = NewDomainError("application", "Review", ErrStateTransition, "application is not pending")
	ErrReasonTooShort      = NewDomainError("application", "Reject", ErrValidation, "rejection reason must be at least 10 characters")
	ErrNoRejectedRecord    = NewDomainError("application", "GrantOverride", ErrNotFound, "no rejected application found for applicant")
	ErrNotEligible         = NewDomainError("application", "Submit", ErrInvalidState, "applicant is not eligible to submit")
)

// Member domain errors
var (
	ErrMemberNotFound = NewDomainError("member", "Find", ErrNotFound, "member not found")
	ErrNotInCommunity = NewDomainError("member", "Fetch", ErrNotFound, "applicant is not in the community")
	ErrRoleNotFound   = NewDomainError("member", "Role", ErrNotFound, "role not found")
	ErrMemberExists   = NewDomainError("member", "Create", ErrAlreadyExists, "member already exists")
)

// Platform errors
var (
	ErrPlatformUnavailable = NewDomainError("platform", "Request", ErrServiceUnavailable, "chat platform is unreachable")
	ErrPlatformTimeout     = NewDomainError("platform", "Request", ErrTimeout, "chat platform request timed out")
	ErrDeliveryFailed      = NewDomainError("platform", "Send", ErrExternalService, "message delivery failed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a conflict (duplicate or bad transition).
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrStateTransition)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsUnavailable checks if the error comes from an unreachable external service.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrTimeout)
}
