package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/adbmx/crm/internal/core/domain"
	"github.com/adbmx/crm/internal/core/ports"
)

const minPasswordLength = 6

// AuthService implements login, the admin bootstrap and account management.
type AuthService struct {
	repo   ports.AuthRepository
	tokens ports.TokenIssuer
	logger zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, tokens ports.TokenIssuer, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, logger: logger}
}

// Login exchanges an email and password for a session credential.
// A disabled account is rejected before the password is compared.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email y contraseña son requeridos", domain.ErrValidation)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !user.Active {
		s.logger.Warn().Uint("user_id", user.ID).Msg("login attempt on disabled account")
		return nil, domain.ErrAccountDisabled
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("login succeeded")
	return &ports.LoginResult{User: user, Token: token}, nil
}

// Profile loads the account behind verified claims. Accounts that were
// removed or disabled after the credential was issued are rejected.
func (s *AuthService) Profile(ctx context.Context, userID uint) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrAuthInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.Active {
		return nil, domain.ErrAccountDisabled
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account when no admin exists.
// It reports whether an account was created. Calling it again is a no-op.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	exists, err := s.repo.HasRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}

	s.logger.Info().Uint("user_id", created.ID).Str("email", created.Email).Msg("bootstrap admin created")
	return true, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

// CreateUser registers a new active account. Role defaults to usuario.
func (s *AuthService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Role == "" {
		in.Role = domain.RoleUser
	}

	switch {
	case in.Name == "" || in.Email == "":
		return nil, fmt.Errorf("%w: nombre y email son requeridos", domain.ErrValidation)
	case len(in.Password) < minPasswordLength:
		return nil, fmt.Errorf("%w: la contraseña debe tener al menos %d caracteres", domain.ErrValidation, minPasswordLength)
	case !domain.ValidRole(in.Role):
		return nil, fmt.Errorf("%w: rol %q no es válido", domain.ErrValidation, in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint("user_id", created.ID).Str("role", created.Role).Msg("user created")
	return created, nil
}

// SetActive enables or disables an account. Credentials already issued
// stay valid until they expire; the account just cannot log in again.
// The last enabled administrator cannot be disabled.
func (s *AuthService) SetActive(ctx context.Context, id uint, active bool) (*domain.User, error) {
	if !active {
		if err := s.keepOneAdmin(ctx, id); err != nil {
			return nil, err
		}
	}

	user, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Uint("user_id", id).Bool("active", active).Msg("user active flag changed")
	return user, nil
}

func (s *AuthService) keepOneAdmin(ctx context.Context, id uint) error {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if target.Role != domain.RoleAdmin || !target.Active {
		return nil
	}
	n, err := s.repo.CountActive(ctx, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if n <= 1 {
		s.logger.Warn().Uint("user_id", id).Msg("refused to disable the last active admin")
		return fmt.Errorf("%w: no se puede desactivar al último administrador activo", domain.ErrValidation)
	}
	return nil
}
