package booking

import (
	"errors"
	"fmt"

	"reservation-backend/internal/store"
)

var (
	// ErrValidation is matched by every input validation failure.
	ErrValidation = errors.New("validation failed")

	ErrReservationNotFound  = errors.New("reservation not found")
	ErrTableNotFound        = errors.New("table not found")
	ErrWaitingEntryNotFound = errors.New("waiting list entry not found")

	// ErrIllegalTransition is returned when an operation is not permitted
	// from the reservation's current status.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrStore wraps failures of the underlying entity store.
	ErrStore = errors.New("store failure")

	// ErrConflict is matched when an operation kept losing the race against
	// other processes writing the same store.
	ErrConflict = store.ErrConflict
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
