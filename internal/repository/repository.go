package repository

import (
	"context"
	"fmt"

	"healthcare-scheduling-server/internal/models"
)

// AppointmentRepository is the durable store of appointments. Callers that
// need the no-double-booking guarantee must hold the doctor's slot lock around
// FindActiveByDoctor and the following Create/Update.
type AppointmentRepository interface {
	Create(ctx context.Context, a *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	Update(ctx context.Context, a *models.Appointment) error

	// FindActiveByDoctor returns the doctor's active appointments with
	// ScheduledDate in [fromDate, toDate] (YYYY-MM-DD, inclusive), ordered by
	// date then time. excludeID, when set, is left out.
	FindActiveByDoctor(ctx context.Context, doctorID, fromDate, toDate, excludeID string) ([]*models.Appointment, error)

	List(ctx context.Context, q ListQuery) (*Page, error)
}

// Directory resolves actor references.
type Directory interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// ListQuery filters appointments. Zero values mean "any".
type ListQuery struct {
	DoctorID  string
	PatientID string
	Status    models.AppointmentStatus
	DateFrom  string
	DateTo    string
	Page      int
	Limit     int
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Normalize clamps paging parameters.
func (q *ListQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
}

func (q ListQuery) offset() int {
	return (q.Page - 1) * q.Limit
}

// Page is one page of a listing, sorted by date then time.
type Page struct {
	Appointments []*models.Appointment
	Pagination   Pagination
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	Limit       int   `json:"limit"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// NewPagination computes the metadata for page/limit over total rows.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  pages,
		TotalCount:  total,
		Limit:       limit,
		HasNext:     page < pages,
		HasPrev:     page > 1,
	}
}

// Error wraps a storage failure. Its message carries driver detail and must
// not be shown to API callers.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("repository %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
