package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-scheduling-server/internal/models"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 11, 2, hour, minute, 0, 0, time.UTC)
}

func appt(id, date, clock string, minutes int, status models.AppointmentStatus) *models.Appointment {
	a := &models.Appointment{
		ScheduledDate:   date,
		ScheduledTime:   clock,
		DurationMinutes: minutes,
		Status:          status,
	}
	a.ID = id
	return a
}

func TestIntervalOverlaps(t *testing.T) {
	base := Interval{Start: at(9, 0), End: at(9, 30)}

	tests := []struct {
		name  string
		other Interval
		want  bool
	}{
		{name: "identical", other: base, want: true},
		{name: "starts inside", other: Interval{Start: at(9, 15), End: at(9, 45)}, want: true},
		{name: "ends inside", other: Interval{Start: at(8, 45), End: at(9, 15)}, want: true},
		{name: "contains", other: Interval{Start: at(8, 0), End: at(10, 0)}, want: true},
		{name: "contained", other: Interval{Start: at(9, 10), End: at(9, 20)}, want: true},
		{name: "back to back after", other: Interval{Start: at(9, 30), End: at(10, 0)}, want: false},
		{name: "back to back before", other: Interval{Start: at(8, 30), End: at(9, 0)}, want: false},
		{name: "disjoint", other: Interval{Start: at(11, 0), End: at(11, 30)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestFindConflict(t *testing.T) {
	existing := []*models.Appointment{
		appt("cancelled", "2026-11-02", "09:00", 30, models.StatusCancelled),
		appt("pending", "2026-11-02", "09:00", 30, models.StatusPending),
		appt("active", "2026-11-02", "09:00", 30, models.StatusScheduled),
	}

	t.Run("overlap is rejected", func(t *testing.T) {
		got := FindConflict(NewInterval(at(9, 15), 30), existing, time.UTC)
		require.NotNil(t, got)
		assert.Equal(t, "active", got.ID)
	})

	t.Run("back to back is accepted", func(t *testing.T) {
		assert.Nil(t, FindConflict(NewInterval(at(9, 30), 30), existing, time.UTC))
	})

	t.Run("inactive appointments never block", func(t *testing.T) {
		inactive := existing[:2]
		assert.False(t, HasConflict(NewInterval(at(9, 0), 30), inactive, time.UTC))
	})

	t.Run("slot crossing midnight", func(t *testing.T) {
		late := []*models.Appointment{appt("late", "2026-11-01", "23:45", 30, models.StatusConfirmed)}
		assert.True(t, HasConflict(NewInterval(at(0, 0), 30), late, time.UTC))
	})
}

func TestDayWindowAndSearchDates(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	start, end := DayWindow(time.Date(2026, 11, 2, 15, 4, 5, 0, loc))
	assert.Equal(t, time.Date(2026, 11, 2, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 11, 2, 23, 59, 59, int(999*time.Millisecond), loc), end)

	from, to := SearchDates(time.Date(2026, 1, 1, 10, 0, 0, 0, loc))
	assert.Equal(t, "2025-12-31", from)
	assert.Equal(t, "2026-01-02", to)
}
