package slotlock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is an in-process Locker. Each doctor gets a one-slot channel
// used as a mutex whose acquisition can be abandoned on timeout. Entries are
// reference counted and dropped once nobody holds or waits for them.
type LocalLocker struct {
	timeout time.Duration

	mu      sync.Mutex
	doctors map[string]*localEntry
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker returns a LocalLocker that gives up after timeout.
func NewLocalLocker(timeout time.Duration) *LocalLocker {
	return &LocalLocker{
		timeout: timeout,
		doctors: make(map[string]*localEntry),
	}
}

func (l *LocalLocker) Acquire(ctx context.Context, doctorID string) (*Lease, error) {
	entry := l.ref(doctorID)

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case entry.sem <- struct{}{}:
		return newLease(doctorID, func(context.Context) error {
			<-entry.sem
			l.unref(doctorID)
			return nil
		}), nil
	case <-timer.C:
		l.unref(doctorID)
		return nil, ErrLockTimeout
	case <-ctx.Done():
		l.unref(doctorID)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) ref(doctorID string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.doctors[doctorID]
	if !ok {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.doctors[doctorID] = e
	}
	e.refs++
	return e
}

func (l *LocalLocker) unref(doctorID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.doctors[doctorID]
	e.refs--
	if e.refs == 0 {
		delete(l.doctors, doctorID)
	}
}

// tracked returns how many doctors currently have holders or waiters.
func (l *LocalLocker) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.doctors)
}
