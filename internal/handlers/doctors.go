package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"healthcare-scheduling-server/internal/booking"
	"healthcare-scheduling-server/internal/models"
	"healthcare-scheduling-server/internal/utils"
)

// DoctorHandler serves the doctor directory and calendars.
type DoctorHandler struct {
	svc        *booking.Service
	log        *zap.Logger
	retryAfter time.Duration
}

func NewDoctorHandler(svc *booking.Service, log *zap.Logger, retryAfter time.Duration) *DoctorHandler {
	return &DoctorHandler{svc: svc, log: log, retryAfter: retryAfter}
}

// GetDoctors handles fetching all users with the doctor role.
// This endpoint will be accessible to patients for booking appointments.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	doctors, err := h.svc.ListDoctors(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, h.retryAfter, err)
		return
	}

	sanitizedDoctors := make([]models.UserSanitized, len(doctors))
	for i, doctor := range doctors {
		sanitizedDoctors[i] = doctor.Sanitize()
	}

	utils.Success(c, "Doctors fetched successfully", sanitizedDoctors)
}

// BusySlot is one occupied interval of a doctor's day. Patient details are
// left out so any caller can look for a free slot.
type BusySlot struct {
	ScheduledDate   string                   `json:"scheduledDate"`
	ScheduledTime   string                   `json:"scheduledTime"`
	DurationMinutes int                      `json:"durationMinutes"`
	Status          models.AppointmentStatus `json:"status"`
}

type scheduleQuery struct {
	Date string `form:"date" binding:"required,date"`
}

// GetDoctorSchedule returns the busy slots of a doctor on one date.
func (h *DoctorHandler) GetDoctorSchedule(c *gin.Context) {
	var q scheduleQuery
	if !utils.BindQuery(c, &q) {
		return
	}

	appts, err := h.svc.DoctorSchedule(c.Request.Context(), c.Param("id"), q.Date)
	if err != nil {
		respondServiceError(c, h.log, h.retryAfter, err)
		return
	}

	slots := make([]BusySlot, len(appts))
	for i, a := range appts {
		slots[i] = BusySlot{
			ScheduledDate:   a.ScheduledDate,
			ScheduledTime:   a.ScheduledTime,
			DurationMinutes: a.DurationMinutes,
			Status:          a.Status,
		}
	}

	utils.Success(c, "Schedule fetched successfully", gin.H{
		"doctorId": c.Param("id"),
		"date":     q.Date,
		"busy":     slots,
	})
}
