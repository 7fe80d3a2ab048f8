package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"healthcare-scheduling-server/internal/booking"
	"healthcare-scheduling-server/internal/middleware"
	"healthcare-scheduling-server/internal/models"
	"healthcare-scheduling-server/internal/repository"
	"healthcare-scheduling-server/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	svc        *booking.Service
	log        *zap.Logger
	retryAfter time.Duration
}

// NewAppointmentHandler creates a new AppointmentHandler. retryAfter is sent
// with 503 responses when a doctor's calendar stays locked.
func NewAppointmentHandler(svc *booking.Service, log *zap.Logger, retryAfter time.Duration) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, log: log, retryAfter: retryAfter}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
type CreateAppointmentRequest struct {
	DoctorID        string   `json:"doctorId" binding:"required,uuid"`
	PatientID       string   `json:"patientId" binding:"omitempty,uuid"` // defaults to the caller when a patient books
	ScheduledDate   string   `json:"scheduledDate" binding:"required,date"`
	ScheduledTime   string   `json:"scheduledTime" binding:"required,hhmm"`
	DurationMinutes *int     `json:"durationMinutes"` // absent means the default; zero is rejected
	Type            string   `json:"type" binding:"required"`
	Priority        string   `json:"priority"`
	ReasonForVisit  string   `json:"reasonForVisit" binding:"required"`
	Status          string   `json:"status"`
	Symptoms        []string `json:"symptoms"`
	Notes           string   `json:"notes"`
	Diagnosis       string   `json:"diagnosis"`
	PrescriptionID  string   `json:"prescriptionId"`
	FollowUpDate    string   `json:"followUpDate" binding:"omitempty,date"`
	PaymentStatus   string   `json:"paymentStatus" binding:"omitempty,oneof=pending paid refunded"`
}

// CreateAppointment books a slot on a doctor's calendar.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, _ := middleware.GetActorFromContext(c)
	switch actor.Role {
	case models.RolePatient:
		if req.PatientID != "" && req.PatientID != actor.ID {
			utils.Forbidden(c, "Patients can only book appointments for themselves.")
			return
		}
	case models.RoleDoctor:
		if req.DoctorID != actor.ID {
			utils.Forbidden(c, "Doctors can only book on their own calendar.")
			return
		}
	}

	appt, err := h.svc.Book(c.Request.Context(), actor, booking.BookRequest{
		DoctorID:        req.DoctorID,
		PatientID:       req.PatientID,
		ScheduledDate:   req.ScheduledDate,
		ScheduledTime:   req.ScheduledTime,
		DurationMinutes: req.DurationMinutes,
		Type:            models.AppointmentType(req.Type),
		Priority:        models.Priority(req.Priority),
		ReasonForVisit:  req.ReasonForVisit,
		Status:          models.AppointmentStatus(req.Status),
		Symptoms:        req.Symptoms,
		Notes:           req.Notes,
		Diagnosis:       req.Diagnosis,
		PrescriptionID:  req.PrescriptionID,
		FollowUpDate:    req.FollowUpDate,
		PaymentStatus:   models.PaymentStatus(req.PaymentStatus),
	})
	if err != nil {
		respondServiceError(c, h.log, h.retryAfter, err)
		return
	}

	utils.Created(c, "Appointment created successfully", appt)
}

// ListAppointmentsQuery holds the listing filters. date is shorthand for
// dateFrom = dateTo.
type ListAppointmentsQuery struct {
	DoctorID  string `form:"doctorId" binding:"omitempty,uuid"`
	PatientID string `form:"patientId" binding:"omitempty,uuid"`
	Status    string `form:"status"`
	Date      string `form:"date" binding:"omitempty,date"`
	DateFrom  string `form:"dateFrom" binding:"omitempty,date"`
	DateTo    string `form:"dateTo" binding:"omitempty,date"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1"`
}

// GetAppointments lists appointments visible to the caller: patients see
// their own, doctors their calendar, admins everything.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	var req ListAppointmentsQuery
	if !utils.BindQuery(c, &req) {
		return
	}

	q := repository.ListQuery{
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
		Status:    models.AppointmentStatus(req.Status),
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		Page:      req.Page,
		Limit:     req.Limit,
	}
	if req.Date != "" {
		q.DateFrom, q.DateTo = req.Date, req.Date
	}

	actor, _ := middleware.GetActorFromContext(c)
	switch actor.Role {
	case models.RolePatient:
		q.PatientID = actor.ID
	case models.RoleDoctor:
		q.DoctorID = actor.ID
	}

	page, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, h.log, h.retryAfter, err)
		return
	}

	utils.Paginated(c, "Appointments fetched successfully", page.Appointments, page.Pagination)
}

// GetAppointmentByID handles fetching a single appointment by its ID.
// Accessible by involved patient, doctor, or an admin.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appt, ok := h.loadVisible(c)
	if !ok {
		return
	}
	utils.Success(c, "Appointment fetched successfully", appt)
}

// UpdateAppointmentStatusRequest represents the request body for updating an appointment's status.
type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

// UpdateAppointmentStatus moves an appointment along its lifecycle. Patients
// may only cancel.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, ok := h.loadVisible(c)
	if !ok {
		return
	}

	actor, _ := middleware.GetActorFromContext(c)
	status := models.AppointmentStatus(req.Status)
	if actor.Role == models.RolePatient && status != models.StatusCancelled {
		utils.Forbidden(c, "Patients can only cancel appointments.")
		return
	}

	updated, err := h.svc.ChangeStatus(c.Request.Context(), actor, appt.ID, booking.ChangeStatusRequest{
		Status: status,
		Reason: req.Reason,
		Notes:  req.Notes,
	})
	if err != nil {
		respondServiceError(c, h.log, h.retryAfter, err)
		return
	}

	utils.Success(c, "Appointment status updated successfully", updated)
}

// CancelAppointmentRequest represents the request body for cancelling an appointment.
type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

// CancelAppointment frees the slot. Any involved party may cancel.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	var req CancelAppointmentRequest
	if c.Request.ContentLength > 0 && !utils.BindAndValidate(c, &req) {
		return
	}

	appt, ok := h.loadVisible(c)
	if !ok {
		return
	}

	actor, _ := middleware.GetActorFromContext(c)
	updated, err := h.svc.Cancel(c.Request.Context(), actor, appt.ID, req.Reason)
	if err != nil {
		respondServiceError(c, h.log, h.retryAfter, err)
		return
	}

	utils.Success(c, "Appointment cancelled successfully", updated)
}

// RescheduleAppointmentRequest represents the request body for rescheduling an appointment.
type RescheduleAppointmentRequest struct {
	ScheduledDate   string `json:"scheduledDate" binding:"required,date"`
	ScheduledTime   string `json:"scheduledTime" binding:"required,hhmm"`
	DurationMinutes *int   `json:"durationMinutes"`
	Notes           string `json:"notes"`
}

// RescheduleAppointment moves an appointment to a new slot.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, ok := h.loadVisible(c)
	if !ok {
		return
	}

	actor, _ := middleware.GetActorFromContext(c)
	updated, err := h.svc.Reschedule(c.Request.Context(), actor, appt.ID, booking.RescheduleRequest{
		ScheduledDate:   req.ScheduledDate,
		ScheduledTime:   req.ScheduledTime,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		respondServiceError(c, h.log, h.retryAfter, err)
		return
	}

	utils.Success(c, "Appointment rescheduled successfully", updated)
}

// loadVisible fetches the :id appointment and checks the caller is involved
// in it or an admin. It writes the error response itself.
func (h *AppointmentHandler) loadVisible(c *gin.Context) (*models.Appointment, bool) {
	appt, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, h.retryAfter, err)
		return nil, false
	}

	actor, _ := middleware.GetActorFromContext(c)
	if !canAccess(actor, appt) {
		// same answer as a missing appointment so ids cannot be probed
		utils.NotFound(c, "appointment not found")
		return nil, false
	}
	return appt, true
}

func canAccess(actor models.Actor, appt *models.Appointment) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleDoctor:
		return appt.DoctorID == actor.ID
	case models.RolePatient:
		return appt.PatientID == actor.ID
	}
	return false
}
