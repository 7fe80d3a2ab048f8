// Package events delivers domain events to collaborators on a best-effort
// basis. Publishing never blocks the caller and a failing sink never affects
// the operation that produced the event.
package events

import (
	"context"
	"time"

	"healthcare-scheduling-server/internal/models"
)

type Type string

const (
	BookingCreated         Type = "BookingCreated"
	StatusChanged          Type = "StatusChanged"
	AppointmentRescheduled Type = "AppointmentRescheduled"
)

type Event struct {
	ID             string                   `json:"id"`
	Type           Type                     `json:"type"`
	AppointmentID  string                   `json:"appointmentId"`
	DoctorID       string                   `json:"doctorId"`
	PatientID      string                   `json:"patientId"`
	Status         models.AppointmentStatus `json:"status"`
	PreviousStatus models.AppointmentStatus `json:"previousStatus,omitempty"`
	ScheduledDate  string                   `json:"scheduledDate"`
	ScheduledTime  string                   `json:"scheduledTime"`
	ActorID        string                   `json:"actorId"`
	ActorRole      models.Role              `json:"actorRole"`
	OccurredAt     time.Time                `json:"occurredAt"`
}

// Publisher accepts events for asynchronous delivery.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Sink consumes events. Handle runs on a dispatcher worker.
type Sink interface {
	Name() string
	Handle(ctx context.Context, e Event) error
}

// Recipients returns who should be notified about e.
func Recipients(e Event) []models.Role {
	switch e.Type {
	case BookingCreated, AppointmentRescheduled:
		return []models.Role{models.RoleDoctor, models.RolePatient}
	case StatusChanged:
		if e.Status == models.StatusCancelled || e.Status == models.StatusScheduled {
			return []models.Role{models.RoleDoctor, models.RolePatient}
		}
		return []models.Role{models.RolePatient}
	}
	return nil
}
