// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
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
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")

	// Concurrency errors
	ErrConflict               = errors.New("conflict")
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrTimeout          = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "gamification", "schedule", "leaderboard"
	Op      string // Operation that failed, e.g., "ProcessAction", "Generate"
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

// ValidationError creates a validation error naming the field that failed.
func ValidationError(domain, op, field, reason string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    ErrValidation,
		Message: fmt.Sprintf("%s: %s", field, reason),
	}
}

// Gamification domain errors
var (
	ErrProfileNotFound     = NewDomainError("gamification", "Find", ErrNotFound, "user profile not found")
	ErrInvalidActionType   = NewDomainError("gamification", "Validate", ErrInvalidInput, "unknown action type")
	ErrInvalidDifficulty   = NewDomainError("gamification", "Validate", ErrInvalidInput, "unknown difficulty")
	ErrAchievementNotFound = NewDomainError("gamification", "FindAchievement", ErrNotFound, "achievement not found")
	ErrAlreadyUnlocked     = NewDomainError("gamification", "Unlock", ErrAlreadyExists, "achievement already unlocked")
	ErrNegativeXP          = NewDomainError("gamification", "Validate", ErrNegativeValue, "XP cannot be negative")
)

// Leaderboard domain errors
var (
	ErrLeaderboardNotFound = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard not found")
	ErrInvalidMetric       = NewDomainError("leaderboard", "Validate", ErrInvalidInput, "invalid leaderboard metric")
	ErrInvalidLimit        = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "invalid leaderboard limit")
)

// Schedule domain errors
var (
	ErrPatternNotFound     = NewDomainError("schedule", "Find", ErrNotFound, "recurring pattern not found")
	ErrInvalidFrequency    = NewDomainError("schedule", "Validate", ErrInvalidInput, "unknown frequency")
	ErrEmptyDaysOfWeek     = NewDomainError("schedule", "Validate", ErrEmptyValue, "weekly pattern requires at least one day of week")
	ErrInvalidDayOfWeek    = NewDomainError("schedule", "Validate", ErrValueOutOfRange, "day of week must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidTimesPerWeek = NewDomainError("schedule", "Validate", ErrValueOutOfRange, "times per week must be between 1 and 7")
	ErrEndBeforeStart      = NewDomainError("schedule", "Validate", ErrInvalidInput, "end date cannot be before start date")
	ErrOccurrenceExists    = NewDomainError("schedule", "CreateOccurrence", ErrAlreadyExists, "occurrence already scheduled for this date")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsConflict checks if the error is a concurrency conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrConcurrentModification)
}

// IsStoreUnavailable checks if the error came from an unreachable store.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrConcurrentModification)
}
