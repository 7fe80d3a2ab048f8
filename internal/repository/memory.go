package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"healthcare-scheduling-server/internal/models"
	"healthcare-scheduling-server/internal/scheduling"
)

// MemoryAppointmentRepository keeps appointments in process memory. It is
// used for DB_DRIVER=memory and in tests. Stored values are cloned on the way
// in and out so callers never share state with the store.
type MemoryAppointmentRepository struct {
	mu    sync.RWMutex
	items map[string]*models.Appointment
	now   func() time.Time
}

func NewMemoryAppointmentRepository() *MemoryAppointmentRepository {
	return &MemoryAppointmentRepository{
		items: make(map[string]*models.Appointment),
		now:   time.Now,
	}
}

func (r *MemoryAppointmentRepository) Create(_ context.Context, a *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.EnsureID()
	now := r.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.items[a.ID] = a.Clone()
	return nil
}

func (r *MemoryAppointmentRepository) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok {
		return nil, scheduling.ErrAppointmentNotFound
	}
	return a.Clone(), nil
}

func (r *MemoryAppointmentRepository) Update(_ context.Context, a *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[a.ID]; !ok {
		return scheduling.ErrAppointmentNotFound
	}
	a.UpdatedAt = r.now()
	r.items[a.ID] = a.Clone()
	return nil
}

func (r *MemoryAppointmentRepository) FindActiveByDoctor(_ context.Context, doctorID, fromDate, toDate, excludeID string) ([]*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Appointment
	for _, a := range r.items {
		if a.DoctorID != doctorID || a.ID == excludeID || !a.Status.IsActive() {
			continue
		}
		if a.ScheduledDate < fromDate || a.ScheduledDate > toDate {
			continue
		}
		out = append(out, a.Clone())
	}
	sortBySlot(out)
	return out, nil
}

func (r *MemoryAppointmentRepository) List(_ context.Context, q ListQuery) (*Page, error) {
	q.Normalize()

	r.mu.RLock()
	var matched []*models.Appointment
	for _, a := range r.items {
		if q.DoctorID != "" && a.DoctorID != q.DoctorID {
			continue
		}
		if q.PatientID != "" && a.PatientID != q.PatientID {
			continue
		}
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		if q.DateFrom != "" && a.ScheduledDate < q.DateFrom {
			continue
		}
		if q.DateTo != "" && a.ScheduledDate > q.DateTo {
			continue
		}
		matched = append(matched, a.Clone())
	}
	r.mu.RUnlock()

	sortBySlot(matched)

	total := int64(len(matched))
	start := q.offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return &Page{
		Appointments: matched[start:end],
		Pagination:   NewPagination(q.Page, q.Limit, total),
	}, nil
}

// sortBySlot orders by date, then time, then id for a stable result.
func sortBySlot(items []*models.Appointment) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ScheduledDate != b.ScheduledDate {
			return a.ScheduledDate < b.ScheduledDate
		}
		if a.ScheduledTime != b.ScheduledTime {
			return a.ScheduledTime < b.ScheduledTime
		}
		return a.ID < b.ID
	})
}

// MemoryDirectory is an in-process Directory.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewMemoryDirectory(users ...*models.User) *MemoryDirectory {
	d := &MemoryDirectory{users: make(map[string]*models.User)}
	for _, u := range users {
		d.Add(u)
	}
	return d
}

// Add inserts or replaces u.
func (d *MemoryDirectory) Add(u *models.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u.EnsureID()
	cp := *u
	d.users[u.ID] = &cp
}

func (d *MemoryDirectory) FindUser(_ context.Context, id string) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok || !u.IsActive {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (d *MemoryDirectory) ListByRole(_ context.Context, role models.Role) ([]*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*models.User
	for _, u := range d.users {
		if u.Role == role && u.IsActive {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

// MemoryAuditRepository collects audit entries in memory.
type MemoryAuditRepository struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (r *MemoryAuditRepository) Create(_ context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

// Entries returns a snapshot of the stored entries.
func (r *MemoryAuditRepository) Entries() []*models.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.AuditLog(nil), r.entries...)
}
