package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"healthcare-scheduling-server/internal/scheduling"
	"healthcare-scheduling-server/internal/slotlock"
	"healthcare-scheduling-server/internal/utils"
)

const (
	codeSlotConflict      = "SLOT_CONFLICT"
	codeIllegalTransition = "ILLEGAL_TRANSITION"
)

// respondServiceError maps booking errors onto HTTP responses. Anything not
// recognised is logged with full detail and surfaced as an opaque 500.
func respondServiceError(c *gin.Context, log *zap.Logger, retryAfter time.Duration, err error) {
	var validErr *scheduling.ValidationError
	if errors.As(err, &validErr) {
		utils.ValidationFailed(c, validErr.Fields)
		return
	}

	switch {
	case errors.Is(err, scheduling.ErrAppointmentNotFound),
		errors.Is(err, scheduling.ErrDoctorNotFound),
		errors.Is(err, scheduling.ErrPatientNotFound):
		utils.NotFound(c, err.Error())

	case errors.Is(err, scheduling.ErrSlotConflict):
		utils.Conflict(c, codeSlotConflict, err.Error())

	case errors.Is(err, scheduling.ErrIllegalTransition):
		utils.Conflict(c, codeIllegalTransition, err.Error())

	case errors.Is(err, slotlock.ErrLockTimeout):
		utils.ServiceUnavailable(c, retryAfter, err.Error())

	default:
		log.Error("unhandled service error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("requestId", c.GetString("requestID")),
			zap.Error(err),
		)
		utils.InternalServerError(c, "internal server error")
	}
}
