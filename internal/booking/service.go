// Package booking accepts appointment requests and drives their lifecycle
// without ever letting two active appointments of one doctor overlap.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"healthcare-scheduling-server/internal/events"
	"healthcare-scheduling-server/internal/metrics"
	"healthcare-scheduling-server/internal/models"
	"healthcare-scheduling-server/internal/repository"
	"healthcare-scheduling-server/internal/scheduling"
	"healthcare-scheduling-server/internal/slotlock"
)

// Options tunes the service. Zero values fall back to sane defaults.
type Options struct {
	Location               *time.Location
	DefaultDurationMinutes int
	MaxDurationMinutes     int
	DefaultStatus          models.AppointmentStatus
	Now                    func() time.Time
}

func (o *Options) setDefaults() {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.DefaultDurationMinutes <= 0 {
		o.DefaultDurationMinutes = 30
	}
	if o.MaxDurationMinutes <= 0 {
		o.MaxDurationMinutes = 480
	}
	if o.DefaultStatus == "" {
		o.DefaultStatus = models.StatusScheduled
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type Service struct {
	repo      repository.AppointmentRepository
	directory repository.Directory
	locker    slotlock.Locker
	publisher events.Publisher
	metrics   *metrics.Collector
	log       *zap.Logger
	tracer    trace.Tracer
	opts      Options
}

// NewService wires the booking engine. directory, publisher and m may be nil:
// without a directory doctor and patient references are not verified.
func NewService(
	repo repository.AppointmentRepository,
	directory repository.Directory,
	locker slotlock.Locker,
	publisher events.Publisher,
	m *metrics.Collector,
	log *zap.Logger,
	opts Options,
) *Service {
	opts.setDefaults()
	return &Service{
		repo:      repo,
		directory: directory,
		locker:    locker,
		publisher: publisher,
		metrics:   m,
		log:       log,
		tracer:    otel.Tracer("healthcare-scheduling-server/booking"),
		opts:      opts,
	}
}

// Book validates req and persists it as a new appointment unless the doctor
// already has an active appointment overlapping the requested slot.
func (s *Service) Book(ctx context.Context, actor models.Actor, req BookRequest) (*models.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Book", trace.WithAttributes(
		attribute.String("doctor.id", req.DoctorID),
		attribute.String("appointment.date", req.ScheduledDate),
	))
	defer span.End()

	appt, start, err := s.newAppointment(actor, req)
	if err != nil {
		s.countBooking("invalid")
		return nil, s.fail(span, err)
	}

	if err := s.verifyParticipants(ctx, appt.DoctorID, appt.PatientID); err != nil {
		s.countBooking("invalid")
		return nil, s.fail(span, err)
	}

	slot := scheduling.NewInterval(start, appt.DurationMinutes)
	err = s.withDoctorLock(ctx, appt.DoctorID, func(ctx context.Context) error {
		if err := s.ensureFree(ctx, appt.DoctorID, "", slot); err != nil {
			return err
		}
		return s.repo.Create(ctx, appt)
	})
	if err != nil {
		s.countBooking(bookingOutcome(err))
		return nil, s.fail(span, err)
	}

	s.countBooking("created")
	span.SetAttributes(attribute.String("appointment.id", appt.ID))
	s.log.Info("appointment booked",
		zap.String("appointmentId", appt.ID),
		zap.String("doctorId", appt.DoctorID),
		zap.String("patientId", appt.PatientID),
		zap.String("date", appt.ScheduledDate),
		zap.String("time", appt.ScheduledTime),
		zap.Int("durationMinutes", appt.DurationMinutes),
	)
	s.emit(ctx, events.BookingCreated, appt, "", actor)
	return appt, nil
}

// ChangeStatus moves an appointment along the lifecycle. Entering the active
// set from outside it re-checks the slot against the doctor's calendar.
func (s *Service) ChangeStatus(ctx context.Context, actor models.Actor, id string, req ChangeStatusRequest) (*models.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.ChangeStatus", trace.WithAttributes(
		attribute.String("appointment.id", id),
		attribute.String("status.to", string(req.Status)),
	))
	defer span.End()

	if !req.Status.IsValid() {
		verr := &scheduling.ValidationError{}
		verr.Add("status %q is not a known appointment status", req.Status)
		return nil, s.fail(span, verr)
	}

	// doctorId is immutable, so reading it before locking is safe.
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(span, err)
	}

	var updated *models.Appointment
	var previous models.AppointmentStatus
	err = s.withDoctorLock(ctx, current.DoctorID, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		previous = a.Status
		if err := scheduling.ValidateTransition(a.Status, req.Status); err != nil {
			return err
		}
		if scheduling.NeedsConflictCheck(a.Status, req.Status) {
			slot, err := scheduling.IntervalOf(a, s.opts.Location)
			if err != nil {
				return fmt.Errorf("stored slot of appointment %s: %w", a.ID, err)
			}
			if err := s.ensureFree(ctx, a.DoctorID, a.ID, slot); err != nil {
				return err
			}
		}

		s.applyStatus(a, actor, req)
		if err := s.repo.Update(ctx, a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	if s.metrics != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(previous), string(updated.Status)).Inc()
	}
	s.log.Info("appointment status changed",
		zap.String("appointmentId", updated.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(updated.Status)),
		zap.String("actorId", actor.ID),
	)
	s.emit(ctx, events.StatusChanged, updated, previous, actor)
	return updated, nil
}

// Cancel is ChangeStatus to cancelled.
func (s *Service) Cancel(ctx context.Context, actor models.Actor, id, reason string) (*models.Appointment, error) {
	return s.ChangeStatus(ctx, actor, id, ChangeStatusRequest{Status: models.StatusCancelled, Reason: reason})
}

func (s *Service) applyStatus(a *models.Appointment, actor models.Actor, req ChangeStatusRequest) {
	switch {
	case req.Status == models.StatusCancelled:
		now := s.opts.Now()
		a.CancelledAt = &now
		a.CancelledBy = actor.ID
		a.CancellationReason = req.Reason
	case a.Status == models.StatusCancelled:
		// reinstated
		a.CancelledAt = nil
		a.CancelledBy = ""
		a.CancellationReason = ""
	}
	a.Status = req.Status
	if req.Notes != "" {
		a.Notes = req.Notes
	}
}

// Reschedule moves a pending, scheduled or confirmed appointment to a new slot.
func (s *Service) Reschedule(ctx context.Context, actor models.Actor, id string, req RescheduleRequest) (*models.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Reschedule", trace.WithAttributes(
		attribute.String("appointment.id", id),
		attribute.String("appointment.date", req.ScheduledDate),
	))
	defer span.End()

	verr := &scheduling.ValidationError{}
	start := parseSlot(verr, req.ScheduledDate, req.ScheduledTime, s.opts.Location)
	if req.DurationMinutes != nil {
		s.checkDuration(verr, *req.DurationMinutes)
	}
	if err := verr.OrNil(); err != nil {
		return nil, s.fail(span, err)
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(span, err)
	}

	var updated *models.Appointment
	err = s.withDoctorLock(ctx, current.DoctorID, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !reschedulable(a.Status) {
			return fmt.Errorf("%w: a %s appointment cannot be rescheduled", scheduling.ErrIllegalTransition, a.Status)
		}

		duration := a.DurationMinutes
		if req.DurationMinutes != nil {
			duration = *req.DurationMinutes
		}
		if a.Status.IsActive() {
			if err := s.ensureFree(ctx, a.DoctorID, a.ID, scheduling.NewInterval(start, duration)); err != nil {
				return err
			}
		}

		a.ScheduledDate = req.ScheduledDate
		a.ScheduledTime = req.ScheduledTime
		a.DurationMinutes = duration
		if req.Notes != "" {
			a.Notes = req.Notes
		}
		if err := s.repo.Update(ctx, a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.log.Info("appointment rescheduled",
		zap.String("appointmentId", updated.ID),
		zap.String("date", updated.ScheduledDate),
		zap.String("time", updated.ScheduledTime),
		zap.String("actorId", actor.ID),
	)
	s.emit(ctx, events.AppointmentRescheduled, updated, "", actor)
	return updated, nil
}

func reschedulable(status models.AppointmentStatus) bool {
	switch status {
	case models.StatusPending, models.StatusScheduled, models.StatusConfirmed:
		return true
	}
	return false
}

func (s *Service) Get(ctx context.Context, id string) (*models.Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns one page of appointments ordered by date then time.
func (s *Service) List(ctx context.Context, q repository.ListQuery) (*repository.Page, error) {
	verr := &scheduling.ValidationError{}
	if q.Status != "" && !q.Status.IsValid() {
		verr.Add("status %q is not a known appointment status", q.Status)
	}
	if q.DateFrom != "" {
		if _, err := ParseDate(q.DateFrom, s.opts.Location); err != nil {
			verr.Add("dateFrom must be a YYYY-MM-DD date")
		}
	}
	if q.DateTo != "" {
		if _, err := ParseDate(q.DateTo, s.opts.Location); err != nil {
			verr.Add("dateTo must be a YYYY-MM-DD date")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	q.Normalize()
	return s.repo.List(ctx, q)
}

// DoctorSchedule returns the active appointments occupying any part of date,
// including ones carried over from the previous evening, ordered by start.
func (s *Service) DoctorSchedule(ctx context.Context, doctorID, date string) ([]*models.Appointment, error) {
	day, err := ParseDate(date, s.opts.Location)
	if err != nil {
		verr := &scheduling.ValidationError{}
		verr.Add("date must be a YYYY-MM-DD date")
		return nil, verr
	}
	if s.directory != nil {
		if err := s.verifyRole(ctx, doctorID, models.RoleDoctor, scheduling.ErrDoctorNotFound); err != nil {
			return nil, err
		}
	}

	from, to := scheduling.SearchDates(day)
	existing, err := s.repo.FindActiveByDoctor(ctx, doctorID, from, to, "")
	if err != nil {
		return nil, err
	}

	window := scheduling.Interval{Start: day, End: day.AddDate(0, 0, 1)}
	busy := make([]*models.Appointment, 0, len(existing))
	for _, a := range existing {
		slot, err := scheduling.IntervalOf(a, s.opts.Location)
		if err != nil {
			continue
		}
		if window.Overlaps(slot) {
			busy = append(busy, a)
		}
	}
	return busy, nil
}

// ListDoctors returns every doctor known to the directory.
func (s *Service) ListDoctors(ctx context.Context) ([]*models.User, error) {
	if s.directory == nil {
		return nil, nil
	}
	return s.directory.ListByRole(ctx, models.RoleDoctor)
}

// withDoctorLock runs fn while holding the doctor's slot lock. The lease is
// released on every path, including a panic in fn.
func (s *Service) withDoctorLock(ctx context.Context, doctorID string, fn func(context.Context) error) error {
	waitStart := time.Now()
	lease, err := s.locker.Acquire(ctx, doctorID)
	if s.metrics != nil {
		s.metrics.LockWaitSeconds.Observe(time.Since(waitStart).Seconds())
	}
	if err != nil {
		if errors.Is(err, slotlock.ErrLockTimeout) && s.metrics != nil {
			s.metrics.LockTimeoutsTotal.Inc()
		}
		return err
	}
	defer func() {
		if err := lease.Release(ctx); err != nil {
			s.log.Warn("releasing slot lock", zap.String("doctorId", doctorID), zap.Error(err))
		}
	}()
	return fn(ctx)
}

// ensureFree fails with a *scheduling.ConflictError when slot overlaps an
// active appointment of the doctor other than excludeID. Must run under the
// doctor's lock.
func (s *Service) ensureFree(ctx context.Context, doctorID, excludeID string, slot scheduling.Interval) error {
	from, to := scheduling.SearchDates(slot.Start)
	existing, err := s.repo.FindActiveByDoctor(ctx, doctorID, from, to, excludeID)
	if err != nil {
		return err
	}
	if c := scheduling.FindConflict(slot, existing, s.opts.Location); c != nil {
		return &scheduling.ConflictError{DoctorID: doctorID, ConflictingID: c.ID}
	}
	return nil
}

func (s *Service) verifyParticipants(ctx context.Context, doctorID, patientID string) error {
	if s.directory == nil {
		return nil
	}
	if err := s.verifyRole(ctx, doctorID, models.RoleDoctor, scheduling.ErrDoctorNotFound); err != nil {
		return err
	}
	return s.verifyRole(ctx, patientID, models.RolePatient, scheduling.ErrPatientNotFound)
}

func (s *Service) verifyRole(ctx context.Context, id string, role models.Role, notFound error) error {
	u, err := s.directory.FindUser(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return notFound
	}
	if err != nil {
		return err
	}
	if !u.IsActive {
		return notFound
	}

	var matches bool
	switch u.Profile().(type) {
	case models.DoctorProfile:
		matches = role == models.RoleDoctor
	case models.PatientProfile:
		matches = role == models.RolePatient
	case models.AdminProfile:
		matches = role == models.RoleAdmin
	}
	if !matches {
		return notFound
	}
	return nil
}

// emit hands the event to the publisher. It runs after the lock is released
// and never fails the operation.
func (s *Service) emit(ctx context.Context, typ events.Type, a *models.Appointment, previous models.AppointmentStatus, actor models.Actor) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, events.Event{
		Type:           typ,
		AppointmentID:  a.ID,
		DoctorID:       a.DoctorID,
		PatientID:      a.PatientID,
		Status:         a.Status,
		PreviousStatus: previous,
		ScheduledDate:  a.ScheduledDate,
		ScheduledTime:  a.ScheduledTime,
		ActorID:        actor.ID,
		ActorRole:      actor.Role,
		OccurredAt:     s.opts.Now(),
	})
}

func (s *Service) countBooking(outcome string) {
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues(outcome).Inc()
	}
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, scheduling.ErrSlotConflict):
		return "conflict"
	case errors.Is(err, slotlock.ErrLockTimeout):
		return "busy"
	default:
		return "error"
	}
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
