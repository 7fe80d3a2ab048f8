package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"healthcare-scheduling-server/internal/models"
	"healthcare-scheduling-server/internal/scheduling"
)

type gormAppointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository returns a gorm-backed AppointmentRepository.
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &gormAppointmentRepository{db: db}
}

func (r *gormAppointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	return wrap("create appointment", r.db.WithContext(ctx).Create(a).Error)
}

func (r *gormAppointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, scheduling.ErrAppointmentNotFound
		}
		return nil, wrap("get appointment", err)
	}
	return &a, nil
}

func (r *gormAppointmentRepository) Update(ctx context.Context, a *models.Appointment) error {
	res := r.db.WithContext(ctx).Save(a)
	if res.Error != nil {
		return wrap("update appointment", res.Error)
	}
	return nil
}

func (r *gormAppointmentRepository) FindActiveByDoctor(ctx context.Context, doctorID, fromDate, toDate, excludeID string) ([]*models.Appointment, error) {
	query := r.db.WithContext(ctx).
		Where("doctor_id = ? AND scheduled_date BETWEEN ? AND ? AND status IN ?",
			doctorID, fromDate, toDate, models.ActiveStatuses()).
		Order("scheduled_date asc, scheduled_time asc")
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var out []*models.Appointment
	if err := query.Find(&out).Error; err != nil {
		return nil, wrap("find active appointments", err)
	}
	return out, nil
}

func (r *gormAppointmentRepository) List(ctx context.Context, q ListQuery) (*Page, error) {
	q.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Appointment{})
	if q.DoctorID != "" {
		query = query.Where("doctor_id = ?", q.DoctorID)
	}
	if q.PatientID != "" {
		query = query.Where("patient_id = ?", q.PatientID)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.DateFrom != "" {
		query = query.Where("scheduled_date >= ?", q.DateFrom)
	}
	if q.DateTo != "" {
		query = query.Where("scheduled_date <= ?", q.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, wrap("count appointments", err)
	}

	var out []*models.Appointment
	err := query.
		Order("scheduled_date asc, scheduled_time asc").
		Offset(q.offset()).
		Limit(q.Limit).
		Find(&out).Error
	if err != nil {
		return nil, wrap("list appointments", err)
	}

	return &Page{Appointments: out, Pagination: NewPagination(q.Page, q.Limit, total)}, nil
}
