package scheduling

import (
	"healthcare-scheduling-server/internal/models"
)

// transitions lists, per status, the statuses it may move to.
//
//	pending → scheduled → confirmed → in-progress → completed
//	any non-terminal → cancelled | no-show
//	cancelled → scheduled (reinstatement)
var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusPending:    {models.StatusScheduled, models.StatusCancelled, models.StatusNoShow},
	models.StatusScheduled:  {models.StatusConfirmed, models.StatusCancelled, models.StatusNoShow},
	models.StatusConfirmed:  {models.StatusInProgress, models.StatusCancelled, models.StatusNoShow},
	models.StatusInProgress: {models.StatusCompleted, models.StatusCancelled, models.StatusNoShow},
	models.StatusCancelled:  {models.StatusScheduled},
	models.StatusCompleted:  {},
	models.StatusNoShow:     {},
}

// CanTransition reports whether to is reachable from from in one step.
func CanTransition(from, to models.AppointmentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an *IllegalTransitionError when the move is not allowed.
func ValidateTransition(from, to models.AppointmentStatus) error {
	if !CanTransition(from, to) {
		return &IllegalTransitionError{From: from, To: to}
	}
	return nil
}

// IsTerminal reports whether no regular lifecycle step leaves s.
// Cancelled counts as terminal even though it can be reinstated.
func IsTerminal(s models.AppointmentStatus) bool {
	switch s {
	case models.StatusCompleted, models.StatusCancelled, models.StatusNoShow:
		return true
	}
	return false
}

// NeedsConflictCheck reports whether moving from → to makes the appointment
// claim a slot it did not hold before.
func NeedsConflictCheck(from, to models.AppointmentStatus) bool {
	return to.IsActive() && !from.IsActive()
}
