package scheduling

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"healthcare-scheduling-server/internal/models"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		from, to models.AppointmentStatus
		ok       bool
	}{
		{models.StatusPending, models.StatusScheduled, true},
		{models.StatusPending, models.StatusCancelled, true},
		{models.StatusPending, models.StatusConfirmed, false},
		{models.StatusScheduled, models.StatusConfirmed, true},
		{models.StatusConfirmed, models.StatusInProgress, true},
		{models.StatusConfirmed, models.StatusNoShow, true},
		{models.StatusInProgress, models.StatusCompleted, true},
		{models.StatusInProgress, models.StatusScheduled, false},
		{models.StatusCompleted, models.StatusScheduled, false},
		{models.StatusCompleted, models.StatusCancelled, false},
		{models.StatusNoShow, models.StatusScheduled, false},
		{models.StatusCancelled, models.StatusCancelled, false},
		{models.StatusCancelled, models.StatusScheduled, true},
		{models.StatusCancelled, models.StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var ite *IllegalTransitionError
			assert.True(t, errors.As(err, &ite))
			assert.True(t, errors.Is(err, ErrIllegalTransition))
			assert.Equal(t, tt.from, ite.From)
			assert.Equal(t, tt.to, ite.To)
		})
	}
}

func TestNeedsConflictCheck(t *testing.T) {
	assert.True(t, NeedsConflictCheck(models.StatusPending, models.StatusScheduled))
	assert.True(t, NeedsConflictCheck(models.StatusCancelled, models.StatusScheduled))
	assert.False(t, NeedsConflictCheck(models.StatusScheduled, models.StatusConfirmed))
	assert.False(t, NeedsConflictCheck(models.StatusConfirmed, models.StatusCancelled))
}

func TestEveryStatusHasATransitionEntry(t *testing.T) {
	for _, s := range []models.AppointmentStatus{
		models.StatusPending, models.StatusScheduled, models.StatusConfirmed, models.StatusInProgress,
		models.StatusCompleted, models.StatusCancelled, models.StatusNoShow,
	} {
		_, ok := transitions[s]
		assert.True(t, ok, s)
		if !IsTerminal(s) {
			assert.True(t, CanTransition(s, models.StatusCancelled), "%s must be cancellable", s)
			assert.True(t, CanTransition(s, models.StatusNoShow), "%s must allow no-show", s)
		}
	}
}

func TestValidationError(t *testing.T) {
	v := &ValidationError{}
	assert.NoError(t, v.OrNil())

	v.Add("doctorId is required")
	v.Add("durationMinutes must be positive, got %d", -5)
	err := v.OrNil()
	assert.EqualError(t, err, "validation failed: doctorId is required; durationMinutes must be positive, got -5")
}
