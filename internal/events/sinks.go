package events

import (
	"context"

	"go.uber.org/zap"

	"healthcare-scheduling-server/internal/models"
	"healthcare-scheduling-server/internal/repository"
)

// AuditSink persists every event as an audit log row.
type AuditSink struct {
	repo repository.AuditRepository
}

func NewAuditSink(repo repository.AuditRepository) *AuditSink {
	return &AuditSink{repo: repo}
}

func (s *AuditSink) Name() string { return "audit" }

func (s *AuditSink) Handle(ctx context.Context, e Event) error {
	return s.repo.Create(ctx, &models.AuditLog{
		ID:             e.ID,
		EventType:      string(e.Type),
		AppointmentID:  e.AppointmentID,
		DoctorID:       e.DoctorID,
		PatientID:      e.PatientID,
		Status:         e.Status,
		PreviousStatus: e.PreviousStatus,
		ActorID:        e.ActorID,
		ActorRole:      e.ActorRole,
		OccurredAt:     e.OccurredAt,
	})
}

// LogSink writes events to the structured log.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Handle(_ context.Context, e Event) error {
	s.log.Info("appointment event",
		zap.String("eventId", e.ID),
		zap.String("type", string(e.Type)),
		zap.String("appointmentId", e.AppointmentID),
		zap.String("doctorId", e.DoctorID),
		zap.String("patientId", e.PatientID),
		zap.String("status", string(e.Status)),
		zap.String("previousStatus", string(e.PreviousStatus)),
		zap.String("actorId", e.ActorID),
	)
	return nil
}
