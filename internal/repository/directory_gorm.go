package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"healthcare-scheduling-server/internal/models"
)

// ErrUserNotFound is returned by Directory lookups.
var ErrUserNotFound = errors.New("user not found")

type gormDirectory struct {
	db *gorm.DB
}

// NewDirectory returns a gorm-backed Directory reading the users table.
func NewDirectory(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

func (d *gormDirectory) FindUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := d.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, wrap("find user", err)
	}
	return &u, nil
}

func (d *gormDirectory) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	var users []*models.User
	err := d.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", role, true).
		Order("last_name asc, first_name asc").
		Find(&users).Error
	if err != nil {
		return nil, wrap("list users", err)
	}
	return users, nil
}
