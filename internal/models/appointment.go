package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending    AppointmentStatus = "pending"
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in-progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no-show"
)

// IsValid reports whether s is a known status.
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusConfirmed, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// IsActive reports whether an appointment in this status occupies the doctor's calendar.
func (s AppointmentStatus) IsActive() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress:
		return true
	}
	return false
}

// ActiveStatuses lists the statuses that block a slot.
func ActiveStatuses() []AppointmentStatus {
	return []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusInProgress}
}

// AppointmentType is the kind of visit.
type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeFollowUp     AppointmentType = "follow-up"
	TypeEmergency    AppointmentType = "emergency"
	TypeCheckUp      AppointmentType = "check-up"
	TypeSurgery      AppointmentType = "surgery"
)

func (t AppointmentType) IsValid() bool {
	switch t {
	case TypeConsultation, TypeFollowUp, TypeEmergency, TypeCheckUp, TypeSurgery:
		return true
	}
	return false
}

// Priority of an appointment.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// PaymentStatus is carried for the billing collaborator; the scheduler never interprets it.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

const (
	// DateLayout is the wire and storage format of scheduledDate.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire and storage format of scheduledTime.
	TimeLayout = "15:04"
)

// Appointment represents a scheduled medical appointment
type Appointment struct {
	BaseModel
	PatientID string `gorm:"size:36;index;not null" json:"patientId"`
	DoctorID  string `gorm:"size:36;index:idx_doctor_date;not null" json:"doctorId"`

	// ScheduledDate is YYYY-MM-DD and ScheduledTime is HH:MM. Both sort lexicographically.
	ScheduledDate   string `gorm:"size:10;index:idx_doctor_date;not null" json:"scheduledDate"`
	ScheduledTime   string `gorm:"size:5;not null" json:"scheduledTime"`
	DurationMinutes int    `gorm:"not null;default:30" json:"durationMinutes"`

	Type           AppointmentType   `gorm:"size:20;not null" json:"type"`
	Status         AppointmentStatus `gorm:"size:20;index;default:'pending'" json:"status"`
	Priority       Priority          `gorm:"size:10;default:'normal'" json:"priority"`
	ReasonForVisit string            `gorm:"type:text;not null" json:"reasonForVisit"`

	Symptoms       []string      `gorm:"serializer:json;type:text" json:"symptoms,omitempty"`
	Notes          string        `gorm:"type:text" json:"notes,omitempty"`
	Diagnosis      string        `gorm:"type:text" json:"diagnosis,omitempty"`
	PrescriptionID string        `gorm:"size:36" json:"prescriptionId,omitempty"`
	FollowUpDate   string        `gorm:"size:10" json:"followUpDate,omitempty"`
	PaymentStatus  PaymentStatus `gorm:"size:20;default:'pending'" json:"paymentStatus"`

	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancelledBy        string     `gorm:"size:36" json:"cancelledBy,omitempty"`
	CancellationReason string     `gorm:"type:text" json:"cancellationReason,omitempty"`
}

// StartsAt combines ScheduledDate and ScheduledTime in loc.
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, a.ScheduledDate+" "+a.ScheduledTime, loc)
}

// Clone returns a copy that shares no mutable state with a.
func (a *Appointment) Clone() *Appointment {
	c := *a
	if a.Symptoms != nil {
		c.Symptoms = append([]string(nil), a.Symptoms...)
	}
	if a.CancelledAt != nil {
		t := *a.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}
