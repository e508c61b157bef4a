/*
errors.go - Error types for the record store

ERROR CATEGORIES:
  1. ValidationError - missing or invalid required field (re-prompt, no retry)
  2. ReferenceError  - dangling foreign key on create/update
  3. ConstraintError - delete blocked by dependents, duplicate explicit id
  4. NotFoundError   - operation targets an unknown id (caller reloads)

Every structured error unwraps to a sentinel, so callers can branch with
errors.Is without caring about the details:

    if errors.Is(err, registry.ErrConstraint) {
        // remove dependents first
    }

Store failures (I/O, driver errors) are wrapped with %w and propagated as-is.
None of these errors are retryable.
*/
package registry

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when a required field is missing or invalid.
	ErrValidation = errors.New("validation failed")

	// ErrReference is returned when a record points at a record that does not exist.
	ErrReference = errors.New("dangling reference")

	// ErrConstraint is returned when an operation would break a store constraint.
	ErrConstraint = errors.New("constraint violation")

	// ErrNotFound is returned when the target id does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNotInitialized is returned when the registry is used before Initialize.
	ErrNotInitialized = errors.New("registry not initialized")
)

// Guard messages.
const (
	MsgClientNotFound   = "client not found"
	MsgParcelNotFound   = "parcel not found"
	MsgClientHasParcels = "client has dependent parcels"
	MsgParcelHasDebts   = "parcel has dependent debts"
	MsgDuplicateID      = "id already exists"
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the field that failed validation.
type ValidationError struct {
	Collection Collection
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s %s", e.Collection, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ReferenceError reports a foreign key pointing at a missing record.
type ReferenceError struct {
	Collection Collection // collection of the record being written
	Field      string     // e.g. "client_id"
	Target     ID         // the missing id
	Message    string     // "client not found" / "parcel not found"
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s (%s %s=%d)", e.Message, e.Collection, e.Field, e.Target)
}

func (e *ReferenceError) Unwrap() error {
	return ErrReference
}

// ConstraintError reports an operation blocked by existing records.
type ConstraintError struct {
	Collection Collection
	ID         ID
	Message    string
	Dependents int // number of blocking records, zero when not applicable
}

func (e *ConstraintError) Error() string {
	if e.Dependents > 0 {
		return fmt.Sprintf("%s (%s id=%d, %d dependents)", e.Message, e.Collection, e.ID, e.Dependents)
	}
	return fmt.Sprintf("%s (%s id=%d)", e.Message, e.Collection, e.ID)
}

func (e *ConstraintError) Unwrap() error {
	return ErrConstraint
}

// NotFoundError reports an unknown id.
type NotFoundError struct {
	Collection Collection
	ID         ID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s id=%d not found", e.Collection, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrReference) ||
		errors.Is(err, ErrConstraint)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
