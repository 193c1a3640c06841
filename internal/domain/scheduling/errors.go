package scheduling

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors. Every failure the engine reports is a value the caller
// must handle; nothing here is ever fatal to the process.
var (
	ErrNotFound          = errors.New("appointment not found")
	ErrStaleAppointment  = errors.New("appointment was modified since it was last read")
	ErrForbidden         = errors.New("operation not permitted for this identity")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("invalid appointment input")
	ErrConflict          = errors.New("appointment conflicts with an existing booking")
	ErrTerminal          = errors.New("appointment is terminal and can no longer be rescheduled")
	ErrSaveFailed        = errors.New("appointment could not be persisted")
)

// ValidationError describes malformed input on create or edit.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError identifies the already-booked appointment that clashes with
// a candidate window, so the UI can show it to the operator.
type ConflictError struct {
	WithAppointmentID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("window conflicts with appointment %s", e.WithAppointmentID)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// TransitionError reports an illegal status change.
type TransitionError struct {
	From AppointmentStatus
	To   AppointmentStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }
