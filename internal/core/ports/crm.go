package ports

import (
	"context"

	"github.com/adbmx/crm/internal/core/domain"
)

// ListFilter carries the query parameters shared by the CRM list endpoints.
type ListFilter struct {
	Search   string // optional: case-insensitive partial match on the entity's text fields
	Status   string // optional: estado, or etapa for opportunities
	Priority string // optional: tasks only
	ClientID uint   // optional: 0 = any client
	Page     int    // 1-based
	Limit    int    // capped at MaxPageLimit by the service
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page is one page of a list query.
type Page[T any] struct {
	Items      []T
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// EntityRepository is the persistence contract for one CRM table.
type EntityRepository[T any] interface {
	List(ctx context.Context, filter ListFilter) ([]T, int64, error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, id uint, entity *T) (*T, error)
	Delete(ctx context.Context, id uint) error
}

// Actor identifies who is calling a service operation.
type Actor struct {
	UserID uint
	Role   string
}

// EntityService exposes the CRUD use cases of one CRM entity.
type EntityService[T any] interface {
	List(ctx context.Context, filter ListFilter) (*Page[T], error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, actor Actor, entity *T) (*T, error)
	Update(ctx context.Context, actor Actor, id uint, entity *T) (*T, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

// ActivityRepository persists and reads the audit trail.
type ActivityRepository interface {
	Insert(ctx context.Context, activity *domain.Activity) error
	Recent(ctx context.Context, limit int) ([]domain.Activity, error)
}

// ActivityRecorder accepts audit entries without blocking the caller on I/O.
type ActivityRecorder interface {
	Record(activity domain.Activity)
}

// DashboardRepository computes the dashboard counters.
type DashboardRepository interface {
	Stats(ctx context.Context) (*domain.DashboardStats, error)
}

// Dashboard is the payload of the dashboard endpoint.
type Dashboard struct {
	Stats          domain.DashboardStats
	RecentActivity []domain.Activity
}

type DashboardService interface {
	Summary(ctx context.Context) (*Dashboard, error)
}
