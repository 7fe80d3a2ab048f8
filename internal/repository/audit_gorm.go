package repository

import (
	"context"

	"gorm.io/gorm"

	"healthcare-scheduling-server/internal/models"
)

type gormAuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &gormAuditRepository{db: db}
}

func (r *gormAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return wrap("create audit log", r.db.WithContext(ctx).Create(entry).Error)
}
