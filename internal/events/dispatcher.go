package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"healthcare-scheduling-server/internal/metrics"
)

const sinkTimeout = 5 * time.Second

// Dispatcher fans events out to sinks from a bounded queue. When the queue is
// full the event is dropped and counted.
type Dispatcher struct {
	sinks   []Sink
	log     *zap.Logger
	metrics *metrics.Collector
	queue   chan Event
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts workers goroutines. m may be nil.
func NewDispatcher(log *zap.Logger, m *metrics.Collector, bufferSize, workers int, sinks ...Sink) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	d := &Dispatcher{
		sinks:   sinks,
		log:     log,
		metrics: m,
		queue:   make(chan Event, bufferSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) Publish(_ context.Context, e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("event published after shutdown, dropping",
			zap.String("type", string(e.Type)),
			zap.String("appointmentId", e.AppointmentID),
		)
		return
	}

	select {
	case d.queue <- e:
	default:
		if d.metrics != nil {
			d.metrics.EventsDropped.Inc()
		}
		d.log.Warn("event queue full, dropping event",
			zap.String("type", string(e.Type)),
			zap.String("appointmentId", e.AppointmentID),
		)
	}
}

// Shutdown stops accepting events and waits for queued ones to be delivered
// or for ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		d.log.Warn("event dispatcher shutdown timed out; some events may be lost")
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for e := range d.queue {
		for _, s := range d.sinks {
			d.deliver(s, e)
		}
	}
}

func (d *Dispatcher) deliver(s Sink, e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	if err := s.Handle(ctx, e); err != nil {
		if d.metrics != nil {
			d.metrics.SinkFailuresTotal.WithLabelValues(s.Name()).Inc()
		}
		d.log.Error("event sink failed",
			zap.String("sink", s.Name()),
			zap.String("type", string(e.Type)),
			zap.String("appointmentId", e.AppointmentID),
			zap.Error(err),
		)
	}
}
