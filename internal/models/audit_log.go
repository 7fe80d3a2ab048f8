package models

import (
	"time"
)

// AuditLog is one persisted domain event.
type AuditLog struct {
	ID             string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	EventType      string            `gorm:"size:40;index;not null" json:"eventType"`
	AppointmentID  string            `gorm:"size:36;index;not null" json:"appointmentId"`
	DoctorID       string            `gorm:"size:36;index" json:"doctorId"`
	PatientID      string            `gorm:"size:36;index" json:"patientId"`
	Status         AppointmentStatus `gorm:"size:20" json:"status"`
	PreviousStatus AppointmentStatus `gorm:"size:20" json:"previousStatus,omitempty"`
	ActorID        string            `gorm:"size:36" json:"actorId"`
	ActorRole      Role              `gorm:"size:20" json:"actorRole"`
	OccurredAt     time.Time         `gorm:"index" json:"occurredAt"`
}
