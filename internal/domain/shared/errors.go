// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
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
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrNegativeValue = errors.New("value cannot be negative")
	ErrInvalidDate   = errors.New("invalid date")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrAlreadyResolved = errors.New("already resolved")

	// Concurrency errors
	ErrConcurrencyConflict = errors.New("concurrency conflict detected")

	// External service errors
	ErrExternalDependency = errors.New("external dependency error")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "engagement", "flag", "content"
	Op      string // Operation that failed, e.g., "Record", "Resolve"
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

// Engagement domain errors
var (
	ErrSnapshotNotFound = NewDomainError("engagement", "Find", ErrNotFound, "snapshot not found")
	ErrUnknownEventKind = NewDomainError("engagement", "Record", ErrInvalidInput, "unknown event kind")
	ErrNegativeCounter  = NewDomainError("engagement", "Validate", ErrNegativeValue, "counter cannot be negative")
)

// Flag domain errors
var (
	ErrFlagNotFound        = NewDomainError("flag", "Find", ErrNotFound, "flag not found")
	ErrFlagAlreadyResolved = NewDomainError("flag", "Resolve", ErrNotFound, "flag already resolved")
	ErrInvalidFlagType     = NewDomainError("flag", "Validate", ErrInvalidInput, "invalid flag type")
)

// Achievement domain errors
var (
	ErrAchievementNotFound = NewDomainError("achievement", "Find", ErrNotFound, "achievement not in catalog")
	ErrAlreadyAwarded      = NewDomainError("achievement", "Award", ErrAlreadyExists, "achievement already awarded")
)

// Content domain errors
var (
	ErrContentNotFound         = NewDomainError("content", "Find", ErrNotFound, "generated content not found")
	ErrInvalidContentType      = NewDomainError("content", "Validate", ErrInvalidInput, "invalid content type")
	ErrContentNotPending       = NewDomainError("content", "Approve", ErrStateTransition, "content is not pending review")
	ErrContentApprovalConflict = NewDomainError("content", "Approve", ErrConcurrencyConflict, "concurrent approval for the same content type")
)

// Notification domain errors
var (
	ErrNotificationNotFound = NewDomainError("notification", "Find", ErrNotFound, "notification not found")
)

// External service errors
var (
	ErrGeneratorUnavailable = NewDomainError("generator", "Generate", ErrExternalDependency, "content generator is unavailable")
	ErrMailerFailed         = NewDomainError("mailer", "Send", ErrExternalDependency, "email delivery failed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrInvalidDate)
}

// IsConflict checks if the error is a concurrency conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsExternal checks if the error is from an external dependency.
func IsExternal(err error) bool {
	return errors.Is(err, ErrExternalDependency) || errors.Is(err, ErrTimeout)
}
