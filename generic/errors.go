/*
errors.go - Centralized error types

PURPOSE:
  All error types in one place for consistency and discoverability.
  The accounting engine itself never fails: bad intervals count zero days
  and missing entitlement counts as zero allocation. Errors exist for the
  request lifecycle and the stores around the engine.

ERROR CATEGORIES:
  1. Lookup errors     - Unknown request, user or holiday
  2. Validation errors - Intake rules (reason length, interval order, ...)
  3. Lifecycle errors  - Status transitions not allowed from current state
  4. Entitlement       - Submission exceeds the remaining balance

USAGE:
  if errors.Is(err, generic.ErrInsufficientEntitlement) {
      var short *generic.InsufficientEntitlementError
      errors.As(err, &short)
  }

SEE ALSO:
  - timeoff/request.go: Returns these errors
  - api/handlers.go:    Maps them to HTTP statuses
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRequestNotFound is returned when a leave request id is unknown.
	ErrRequestNotFound = errors.New("request not found")

	// ErrUserNotFound is returned when a user id is unknown.
	ErrUserNotFound = errors.New("user not found")

	// ErrHolidayNotFound is returned when a holiday id is unknown.
	ErrHolidayNotFound = errors.New("holiday not found")

	// ErrDuplicateUser is returned when a user email is already registered.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrValidation is returned when intake validation fails.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrForbidden is returned when the actor may not perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrInsufficientEntitlement is returned when a submission exceeds the
	// remaining entitlement of its category.
	ErrInsufficientEntitlement = errors.New("insufficient entitlement")

	// ErrSuggestionsUnavailable is returned when the advisory analyzer fails.
	// It never fails a submission.
	ErrSuggestionsUnavailable = errors.New("suggestions unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientEntitlementError provides details about an entitlement shortfall.
type InsufficientEntitlementError struct {
	Category  string
	Year      int
	Requested int
	Remaining int
}

func (e *InsufficientEntitlementError) Error() string {
	return fmt.Sprintf("insufficient %s entitlement for %d: requested %d business days, %d remaining",
		e.Category, e.Year, e.Requested, e.Remaining)
}

func (e *InsufficientEntitlementError) Unwrap() error {
	return ErrInsufficientEntitlement
}

// Shortfall returns how many business days are missing.
func (e *InsufficientEntitlementError) Shortfall() int {
	return e.Requested - e.Remaining
}

// TransitionError describes a rejected status change.
type TransitionError struct {
	RequestID string
	From      string
	To        string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("request %s cannot move from %s to %s", e.RequestID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// FieldError is a single failed intake rule.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects intake rule failures.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInsufficientEntitlement) ||
		errors.Is(err, ErrDuplicateUser)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrHolidayNotFound)
}
