package scheduling

import (
	"errors"
	"fmt"
	"strings"

	"healthcare-scheduling-server/internal/models"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrSlotConflict        = errors.New("requested time slot overlaps an existing appointment")
	ErrIllegalTransition   = errors.New("illegal appointment status transition")
)

// ValidationError lists every malformed or missing field of a request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// Add records a field problem.
func (e *ValidationError) Add(format string, args ...any) {
	e.Fields = append(e.Fields, fmt.Sprintf(format, args...))
}

// OrNil returns e when at least one field failed.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ConflictError reports the active appointment a candidate slot collides with.
type ConflictError struct {
	DoctorID      string
	ConflictingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("doctor %s: %s (appointment %s)", e.DoctorID, ErrSlotConflict, e.ConflictingID)
}

func (e *ConflictError) Unwrap() error { return ErrSlotConflict }

// IllegalTransitionError is returned when To is not reachable from From.
type IllegalTransitionError struct {
	From models.AppointmentStatus
	To   models.AppointmentStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrIllegalTransition, e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }
