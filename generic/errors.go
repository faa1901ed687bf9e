/*
errors.go - Centralized error types for the promotion engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Configuration errors - Unknown grade/year, invalid policy tables.
     Fatal for a whole board cycle.
  2. Record errors - Missing required fields. Never fatal; they become an
     Excluded classification on the one record they belong to.
  3. Session errors - Cached roster results that expired or never existed.

USAGE:
    ctx, err := policy.Resolve(grade, year)
    if errors.Is(err, generic.ErrUnknownGrade) {
        // abort the cycle, report the grade/year pair
    }

SEE ALSO:
  - eligibility/keydates.go: Returns UnknownGradeError
  - eligibility/rules.go: Builds MissingFieldError details
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownGrade is returned when a grade/year pair has no configured
	// thresholds. Processing of the whole cycle must stop.
	ErrUnknownGrade = errors.New("unknown grade")

	// ErrMissingRequiredField is returned when a record lacks a required field.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidPolicy is returned when a policy table fails validation.
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrSessionNotFound is returned when a cached result is missing or expired.
	ErrSessionNotFound = errors.New("session not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownGradeError identifies the grade/year pair that could not be resolved.
type UnknownGradeError struct {
	Grade string
	Year  int
}

func (e *UnknownGradeError) Error() string {
	return fmt.Sprintf("unknown grade/year: no thresholds configured for %s in %d", e.Grade, e.Year)
}

func (e *UnknownGradeError) Unwrap() error {
	return ErrUnknownGrade
}

// MissingFieldError names the required field that was absent. Value holds
// the submitted text when the field was present but unreadable.
type MissingFieldError struct {
	Field string
	Value string
}

func (e *MissingFieldError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("missing required field: %s (unreadable value %q)", e.Field, e.Value)
	}
	return fmt.Sprintf("missing required field: %s", e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingRequiredField
}

// PolicyValidationError provides details about a rejected policy table.
type PolicyValidationError struct {
	Field   string // e.g., "grades.SSG.cutoff"
	Message string
}

func (e *PolicyValidationError) Error() string {
	return fmt.Sprintf("invalid policy: %s: %s", e.Field, e.Message)
}

func (e *PolicyValidationError) Unwrap() error {
	return ErrInvalidPolicy
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownGrade) ||
		errors.Is(err, ErrMissingRequiredField) ||
		errors.Is(err, ErrInvalidPolicy)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
