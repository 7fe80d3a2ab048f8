package repository

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"healthcare-scheduling-server/internal/models"
)

// CachedDirectory memoises successful user lookups for ttl. Misses and errors
// are never cached so a newly registered doctor is bookable immediately.
type CachedDirectory struct {
	next  Directory
	users *expirable.LRU[string, *models.User]
}

func NewCachedDirectory(next Directory, size int, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		next:  next,
		users: expirable.NewLRU[string, *models.User](size, nil, ttl),
	}
}

func (d *CachedDirectory) FindUser(ctx context.Context, id string) (*models.User, error) {
	if u, ok := d.users.Get(id); ok {
		cp := *u
		return &cp, nil
	}
	u, err := d.next.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *u
	d.users.Add(id, &cp)
	return u, nil
}

func (d *CachedDirectory) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	return d.next.ListByRole(ctx, role)
}
