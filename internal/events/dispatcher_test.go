package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"healthcare-scheduling-server/internal/metrics"
	"healthcare-scheduling-server/internal/models"
	"healthcare-scheduling-server/internal/repository"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
	block  chan struct{}
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Handle(_ context.Context, e Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) received() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func newCollector() *metrics.Collector {
	return metrics.NewCollector(prometheus.NewRegistry(), "test")
}

func TestDispatcherDeliversToEverySink(t *testing.T) {
	first := &recordingSink{}
	audit := &repository.MemoryAuditRepository{}
	d := NewDispatcher(zap.NewNop(), newCollector(), 10, 2, first, NewAuditSink(audit))

	d.Publish(context.Background(), Event{
		Type:          BookingCreated,
		AppointmentID: "appt-1",
		DoctorID:      "doc-1",
		PatientID:     "pat-1",
		Status:        models.StatusScheduled,
		ActorID:       "pat-1",
		ActorRole:     models.RolePatient,
	})
	require.NoError(t, d.Shutdown(context.Background()))

	got := first.received()
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].OccurredAt.IsZero())

	entries := audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "BookingCreated", entries[0].EventType)
	assert.Equal(t, "appt-1", entries[0].AppointmentID)
	assert.Equal(t, got[0].ID, entries[0].ID)
}

func TestDispatcherSinkFailureDoesNotStopOthers(t *testing.T) {
	m := newCollector()
	failing := &recordingSink{err: errors.New("broker down")}
	healthy := &recordingSink{}
	d := NewDispatcher(zap.NewNop(), m, 10, 1, failing, healthy)

	d.Publish(context.Background(), Event{Type: StatusChanged, AppointmentID: "appt-1"})
	require.NoError(t, d.Shutdown(context.Background()))

	assert.Len(t, healthy.received(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkFailuresTotal.WithLabelValues("recording")))
}

func TestDispatcherDropsWhenQueueIsFull(t *testing.T) {
	m := newCollector()
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(zap.NewNop(), m, 1, 1, sink)

	// the worker takes the first event and blocks in the sink, the second
	// fills the queue, the rest are dropped
	d.Publish(context.Background(), Event{Type: BookingCreated, AppointmentID: "a"})
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, time.Millisecond)
	d.Publish(context.Background(), Event{Type: BookingCreated, AppointmentID: "b"})
	d.Publish(context.Background(), Event{Type: BookingCreated, AppointmentID: "c"})
	d.Publish(context.Background(), Event{Type: BookingCreated, AppointmentID: "d"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsDropped))

	close(sink.block)
	require.NoError(t, d.Shutdown(context.Background()))
	assert.Len(t, sink.received(), 2)
}

func TestDispatcherPublishAfterShutdownIsDropped(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(zap.NewNop(), nil, 10, 1, sink)
	require.NoError(t, d.Shutdown(context.Background()))

	assert.NotPanics(t, func() {
		d.Publish(context.Background(), Event{Type: BookingCreated})
	})
	assert.Empty(t, sink.received())
}

func TestDispatcherShutdownHonoursContext(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	defer close(sink.block)
	d := NewDispatcher(zap.NewNop(), nil, 10, 1, sink)
	d.Publish(context.Background(), Event{Type: BookingCreated})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Shutdown(ctx), context.DeadlineExceeded)
}

func TestRecipients(t *testing.T) {
	tests := []struct {
		name string
		e    Event
		want []models.Role
	}{
		{"booking", Event{Type: BookingCreated}, []models.Role{models.RoleDoctor, models.RolePatient}},
		{"reschedule", Event{Type: AppointmentRescheduled}, []models.Role{models.RoleDoctor, models.RolePatient}},
		{"cancel", Event{Type: StatusChanged, Status: models.StatusCancelled}, []models.Role{models.RoleDoctor, models.RolePatient}},
		{"confirm", Event{Type: StatusChanged, Status: models.StatusConfirmed}, []models.Role{models.RolePatient}},
		{"unknown", Event{Type: "Other"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recipients(tt.e))
		})
	}
}
