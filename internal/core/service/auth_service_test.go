package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/adbmx/crm/internal/core/domain"
	"github.com/adbmx/crm/internal/core/ports"
)

type stubAuthRepo struct {
	users  map[uint]*domain.User
	nextID uint
	err    error
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[uint]*domain.User), nextID: 1}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	copy := cloneUser(user)
	copy.ID = r.nextID
	r.nextID++
	r.users[copy.ID] = cloneUser(copy)
	return copy, nil
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAuthRepo) FindByID(_ context.Context, id uint) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubAuthRepo) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubAuthRepo) SetActive(_ context.Context, id uint, active bool) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Active = active
	return cloneUser(u), nil
}

func (r *stubAuthRepo) HasRole(_ context.Context, role string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	for _, u := range r.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAuthRepo) CountActive(_ context.Context, role string) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for _, u := range r.users {
		if u.Role == role && u.Active {
			n++
		}
	}
	return n, nil
}

func newTestAuthService(repo *stubAuthRepo) (*AuthService, *TokenManager) {
	tokens := NewTokenManager("secret", time.Hour)
	return NewAuthService(repo, tokens, zerolog.Nop()), tokens
}

func seedUser(t *testing.T, svc *AuthService, email, password, role string) *domain.User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), ports.CreateUserInput{
		Name: "Test", Email: email, Password: password, Role: role,
	})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	return u
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubAuthRepo()
	svc, tokens := newTestAuthService(repo)
	user := seedUser(t, svc, "carol@example.com", "s3cret!", domain.RoleSalesperson)

	res, err := svc.Login(context.Background(), "carol@example.com", "s3cret!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token, got empty")
	}

	claims, err := tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email || claims.Role != domain.RoleSalesperson {
		t.Fatalf("claims do not match account: %+v", claims)
	}

	raw := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(res.Token, raw, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	}); err != nil {
		t.Fatalf("parse raw claims: %v", err)
	}
	if raw["rol"] != domain.RoleSalesperson {
		t.Fatalf("expected rol claim %s, got %v", domain.RoleSalesperson, raw["rol"])
	}
	if _, ok := raw["iat"]; !ok {
		t.Fatalf("expected iat claim")
	}
}

func TestAuthService_Login_MissingFields(t *testing.T) {
	svc, _ := newTestAuthService(newStubAuthRepo())

	if _, err := svc.Login(context.Background(), "", "pass"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@b.com", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc, _ := newTestAuthService(newStubAuthRepo())
	seedUser(t, svc, "dave@example.com", "goodpass", "")

	if _, err := svc.Login(context.Background(), "dave@example.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc, _ := newTestAuthService(newStubAuthRepo())

	if _, err := svc.Login(context.Background(), "ghost@example.com", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_EmailIsCaseSensitive(t *testing.T) {
	svc, _ := newTestAuthService(newStubAuthRepo())
	seedUser(t, svc, "erin@example.com", "password1", "")

	if _, err := svc.Login(context.Background(), "Erin@Example.com", "password1"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_DisabledAccount(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newTestAuthService(repo)
	user := seedUser(t, svc, "frank@example.com", "rightpass", "")

	if _, err := svc.SetActive(context.Background(), user.ID, false); err != nil {
		t.Fatalf("SetActive returned error: %v", err)
	}

	for _, pw := range []string{"rightpass", "wrongpass"} {
		if _, err := svc.Login(context.Background(), "frank@example.com", pw); err != domain.ErrAccountDisabled {
			t.Fatalf("password %q: expected ErrAccountDisabled, got %v", pw, err)
		}
	}
}

func TestAuthService_Login_RepoError(t *testing.T) {
	repo := newStubAuthRepo()
	repo.err = errors.New("db down")
	svc, _ := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), "a@b.com", "pass")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}

func TestAuthService_Profile(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newTestAuthService(repo)
	user := seedUser(t, svc, "gina@example.com", "password", "")

	got, err := svc.Profile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Profile returned error: %v", err)
	}
	if got.Email != user.Email {
		t.Fatalf("unexpected profile: %+v", got)
	}

	if _, err := svc.Profile(context.Background(), 999); err != domain.ErrAuthInvalid {
		t.Fatalf("expected ErrAuthInvalid for vanished user, got %v", err)
	}

	_, _ = svc.SetActive(context.Background(), user.ID, false)
	if _, err := svc.Profile(context.Background(), user.ID); err != domain.ErrAccountDisabled {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestAuthService_EnsureAdmin_Idempotent(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newTestAuthService(repo)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "Administrador", "admin@adbmx.com", "admin123")
	if err != nil {
		t.Fatalf("EnsureAdmin returned error: %v", err)
	}
	if !created {
		t.Fatalf("expected admin to be created")
	}

	created, err = svc.EnsureAdmin(ctx, "Administrador", "admin@adbmx.com", "admin123")
	if err != nil {
		t.Fatalf("second EnsureAdmin returned error: %v", err)
	}
	if created {
		t.Fatalf("expected second call to be a no-op")
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected exactly one account, got %d", len(repo.users))
	}

	res, err := svc.Login(ctx, "admin@adbmx.com", "admin123")
	if err != nil {
		t.Fatalf("bootstrap admin cannot log in: %v", err)
	}
	if res.User.Role != domain.RoleAdmin || !res.User.Active {
		t.Fatalf("unexpected bootstrap admin: %+v", res.User)
	}
}

func TestAuthService_EnsureAdmin_ExistingAdmin(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newTestAuthService(repo)
	seedUser(t, svc, "boss@example.com", "password", domain.RoleAdmin)

	created, err := svc.EnsureAdmin(context.Background(), "Administrador", "admin@adbmx.com", "admin123")
	if err != nil {
		t.Fatalf("EnsureAdmin returned error: %v", err)
	}
	if created {
		t.Fatalf("expected no new admin when one already exists")
	}
}

func TestAuthService_CreateUser(t *testing.T) {
	svc, _ := newTestAuthService(newStubAuthRepo())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, ports.CreateUserInput{Name: " Hector ", Email: "hector@example.com", Password: "pass123"})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if user.Name != "Hector" || user.Role != domain.RoleUser || !user.Active {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	if _, err := svc.CreateUser(ctx, ports.CreateUserInput{Name: "X", Email: "hector@example.com", Password: "pass123"}); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_CreateUser_Validation(t *testing.T) {
	svc, _ := newTestAuthService(newStubAuthRepo())
	ctx := context.Background()

	cases := []ports.CreateUserInput{
		{Name: "", Email: "a@b.com", Password: "pass123"},
		{Name: "A", Email: "a@b.com", Password: "123"},
		{Name: "A", Email: "a@b.com", Password: "pass123", Role: "root"},
	}
	for _, in := range cases {
		if _, err := svc.CreateUser(ctx, in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("input %+v: expected ErrValidation, got %v", in, err)
		}
	}
}

func TestAuthService_SetActive_NotFound(t *testing.T) {
	svc, _ := newTestAuthService(newStubAuthRepo())

	if _, err := svc.SetActive(context.Background(), 42, false); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_SetActive_KeepsLastAdmin(t *testing.T) {
	repo := newStubAuthRepo()
	svc, _ := newTestAuthService(repo)
	ctx := context.Background()
	first := seedUser(t, svc, "root@example.com", "password", domain.RoleAdmin)

	if _, err := svc.SetActive(ctx, first.ID, false); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for the last admin, got %v", err)
	}
	if !repo.users[first.ID].Active {
		t.Fatalf("last admin must stay active")
	}

	second := seedUser(t, svc, "root2@example.com", "password", domain.RoleAdmin)
	if _, err := svc.SetActive(ctx, first.ID, false); err != nil {
		t.Fatalf("disabling one of two admins should work, got %v", err)
	}
	if _, err := svc.SetActive(ctx, second.ID, false); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation once a single admin is left, got %v", err)
	}
	if _, err := svc.SetActive(ctx, first.ID, true); err != nil {
		t.Fatalf("re-enabling an admin should work, got %v", err)
	}
}
