package scheduling

import (
	"time"

	"healthcare-scheduling-server/internal/models"
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether a and b share at least one instant.
// Back-to-back intervals (a.End == b.Start) do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// NewInterval builds the slot starting at start and lasting durationMinutes.
func NewInterval(start time.Time, durationMinutes int) Interval {
	return Interval{Start: start, End: start.Add(time.Duration(durationMinutes) * time.Minute)}
}

// IntervalOf derives the slot occupied by a.
func IntervalOf(a *models.Appointment, loc *time.Location) (Interval, error) {
	start, err := a.StartsAt(loc)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(start, a.DurationMinutes), nil
}

// FindConflict returns the first active appointment in existing whose slot
// overlaps candidate, or nil. Appointments with an unparsable slot are skipped
// since they could never have been written through the booking path.
func FindConflict(candidate Interval, existing []*models.Appointment, loc *time.Location) *models.Appointment {
	for _, a := range existing {
		if !a.Status.IsActive() {
			continue
		}
		slot, err := IntervalOf(a, loc)
		if err != nil {
			continue
		}
		if candidate.Overlaps(slot) {
			return a
		}
	}
	return nil
}

// HasConflict reports whether candidate overlaps any active appointment in existing.
func HasConflict(candidate Interval, existing []*models.Appointment, loc *time.Location) bool {
	return FindConflict(candidate, existing, loc) != nil
}

// DayWindow returns local midnight and 23:59:59.999 of the day containing t.
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// SearchDates returns the inclusive date range, as stored strings, that must be
// read to find every appointment able to overlap a slot on day. One day on each
// side catches slots that cross midnight.
func SearchDates(day time.Time) (from, to string) {
	start, _ := DayWindow(day)
	return start.AddDate(0, 0, -1).Format(models.DateLayout), start.AddDate(0, 0, 1).Format(models.DateLayout)
}
