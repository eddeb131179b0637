package shared

import (
	"context"

	"github.com/google/uuid"
)

// Filter carries pagination, ordering, and column filters for list
// queries.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]any
}

// DefaultFilter lists newest first, 20 per page.
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]any),
	}
}

// Paginate reports whether the filter requests a page window, and the
// offset to apply when it does.
func (f Filter) Paginate() (offset int, ok bool) {
	if f.Page <= 0 || f.PageSize <= 0 {
		return 0, false
	}
	return (f.Page - 1) * f.PageSize, true
}

// Repository is the generic persistence contract aggregates share.
type Repository[T any] interface {
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	FindAll(ctx context.Context, filter Filter) ([]T, error)
	Save(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter Filter) (int64, error)
}

// TenantRepository adds tenant-scoped lookups. Implementations must
// never return another tenant's rows from the scoped methods.
type TenantRepository[T any] interface {
	Repository[T]
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*T, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]T, error)
}
