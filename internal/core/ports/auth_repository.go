package ports

import (
	"context"

	"github.com/adbmx/crm/internal/core/domain"
)

// AuthRepository defines the interface for user account persistence.
type AuthRepository interface {
	// FindByEmail matches the email exactly (case-sensitive).
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	SetActive(ctx context.Context, id uint, active bool) (*domain.User, error)
	// HasRole reports whether at least one account with the role exists.
	HasRole(ctx context.Context, role string) (bool, error)
	// CountActive returns how many enabled accounts hold the role.
	CountActive(ctx context.Context, role string) (int64, error)
}
