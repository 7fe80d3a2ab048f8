// Package slotlock serializes the booking critical section per doctor.
package slotlock

import (
	"context"
	"errors"
	"sync"
)

// ErrLockTimeout means the doctor's calendar stayed busy for the whole wait
// budget. Callers may retry with backoff.
var ErrLockTimeout = errors.New("doctor calendar is busy, retry later")

// Locker hands out per-doctor leases. Leases for different doctors never
// block each other.
type Locker interface {
	Acquire(ctx context.Context, doctorID string) (*Lease, error)
}

// Lease is a held doctor lock. Release is safe to call more than once and
// from a deferred statement on every path.
type Lease struct {
	doctorID string
	once     sync.Once
	release  func(context.Context) error
	err      error
}

func newLease(doctorID string, release func(context.Context) error) *Lease {
	return &Lease{doctorID: doctorID, release: release}
}

// DoctorID returns the locked doctor.
func (l *Lease) DoctorID() string { return l.doctorID }

// Release gives the lock back. Only the first call has an effect.
func (l *Lease) Release(ctx context.Context) error {
	l.once.Do(func() {
		l.err = l.release(ctx)
	})
	return l.err
}
