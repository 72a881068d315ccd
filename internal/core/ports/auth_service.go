package ports

import (
	"context"

	"github.com/adbmx/crm/internal/core/domain"
)

// LoginResult is returned on a successful login.
type LoginResult struct {
	User  *domain.User
	Token string
}

// CreateUserInput carries the fields an admin provides for a new account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Profile loads the account behind verified claims.
	Profile(ctx context.Context, userID uint) (*domain.User, error)
	EnsureAdmin(ctx context.Context, name, email, password string) (bool, error)
}

type UserService interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error)
	SetActive(ctx context.Context, id uint, active bool) (*domain.User, error)
}

// TokenIssuer mints session credentials.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

// TokenVerifier checks a session credential and returns its claims.
// It performs no I/O.
type TokenVerifier interface {
	Verify(token string) (*domain.Claims, error)
}

// AttemptLimiter counts login attempts per key inside a fixed window.
type AttemptLimiter interface {
	// Allow records one attempt and reports whether key is still under the limit.
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}
