package booking

import (
	"time"

	"healthcare-scheduling-server/internal/models"
	"healthcare-scheduling-server/internal/scheduling"
)

// BookRequest asks for a new appointment. Empty optional fields take the
// service defaults; a nil DurationMinutes means the default duration.
type BookRequest struct {
	DoctorID        string
	PatientID       string
	ScheduledDate   string
	ScheduledTime   string
	DurationMinutes *int
	Type            models.AppointmentType
	Priority        models.Priority
	ReasonForVisit  string
	Status          models.AppointmentStatus
	Symptoms        []string
	Notes           string

	// Stored as given for the records and billing collaborators.
	Diagnosis      string
	PrescriptionID string
	FollowUpDate   string
	PaymentStatus  models.PaymentStatus
}

type ChangeStatusRequest struct {
	Status models.AppointmentStatus
	Reason string
	Notes  string
}

// RescheduleRequest moves an appointment. A nil DurationMinutes keeps the
// current duration.
type RescheduleRequest struct {
	ScheduledDate   string
	ScheduledTime   string
	DurationMinutes *int
	Notes           string
}

// parseSlot checks date and clock strings are in their canonical layouts and
// combines them in loc.
func parseSlot(verr *scheduling.ValidationError, date, clock string, loc *time.Location) time.Time {
	ok := true
	d, err := ParseDate(date, loc)
	if err != nil {
		verr.Add("scheduledDate must be a YYYY-MM-DD date")
		ok = false
	}
	c, err := time.Parse(models.TimeLayout, clock)
	if err != nil || c.Format(models.TimeLayout) != clock {
		verr.Add("scheduledTime must be HH:MM in 24h format")
		ok = false
	}
	if !ok {
		return time.Time{}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc)
}

// ParseDate accepts only the canonical YYYY-MM-DD form.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(models.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, err
	}
	if d.Format(models.DateLayout) != s {
		return time.Time{}, &time.ParseError{Layout: models.DateLayout, Value: s, Message: ": not canonical"}
	}
	return d, nil
}

func (s *Service) checkDuration(verr *scheduling.ValidationError, minutes int) {
	if minutes <= 0 {
		verr.Add("durationMinutes must be positive")
	} else if minutes > s.opts.MaxDurationMinutes {
		verr.Add("durationMinutes must not exceed %d", s.opts.MaxDurationMinutes)
	}
}

// newAppointment validates req and builds the appointment it describes,
// together with its start instant.
func (s *Service) newAppointment(actor models.Actor, req BookRequest) (*models.Appointment, time.Time, error) {
	verr := &scheduling.ValidationError{}

	patientID := req.PatientID
	if patientID == "" && actor.Role == models.RolePatient {
		patientID = actor.ID
	}
	if req.DoctorID == "" {
		verr.Add("doctorId is required")
	}
	if patientID == "" {
		verr.Add("patientId is required")
	}

	start := parseSlot(verr, req.ScheduledDate, req.ScheduledTime, s.opts.Location)

	duration := s.opts.DefaultDurationMinutes
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}
	s.checkDuration(verr, duration)

	if !req.Type.IsValid() {
		verr.Add("type must be one of consultation, follow-up, emergency, check-up, surgery")
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	if !priority.IsValid() {
		verr.Add("priority must be one of normal, high, urgent")
	}

	if req.ReasonForVisit == "" {
		verr.Add("reasonForVisit is required")
	}

	status := req.Status
	if status == "" {
		status = s.opts.DefaultStatus
	}
	if status != models.StatusPending && status != models.StatusScheduled {
		verr.Add("status must be pending or scheduled for a new appointment")
	}

	if req.FollowUpDate != "" {
		if _, err := ParseDate(req.FollowUpDate, s.opts.Location); err != nil {
			verr.Add("followUpDate must be a YYYY-MM-DD date")
		}
	}

	payment := req.PaymentStatus
	if payment == "" {
		payment = models.PaymentPending
	}
	if !payment.IsValid() {
		verr.Add("paymentStatus must be one of pending, paid, refunded")
	}

	if err := verr.OrNil(); err != nil {
		return nil, time.Time{}, err
	}

	return &models.Appointment{
		PatientID:       patientID,
		DoctorID:        req.DoctorID,
		ScheduledDate:   req.ScheduledDate,
		ScheduledTime:   req.ScheduledTime,
		DurationMinutes: duration,
		Type:            req.Type,
		Status:          status,
		Priority:        priority,
		ReasonForVisit:  req.ReasonForVisit,
		Symptoms:        req.Symptoms,
		Notes:           req.Notes,
		Diagnosis:       req.Diagnosis,
		PrescriptionID:  req.PrescriptionID,
		FollowUpDate:    req.FollowUpDate,
		PaymentStatus:   payment,
	}, start, nil
}
