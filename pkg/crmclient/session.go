// Package crmclient is a Go client for the AdBMX CRM API that keeps the
// session credential and profile in a Storage.
package crmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// State is the position of a Session in its lifecycle.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

var (
	// ErrSessionExpired is returned when the server rejects the stored
	// credential. The session is cleared before it is returned.
	ErrSessionExpired = errors.New("crmclient: session expired")
	// ErrNotAuthenticated is returned by calls that need a credential when
	// none is held.
	ErrNotAuthenticated = errors.New("crmclient: not authenticated")
)

// APIError is a non-2xx answer. Message is the server's error string.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crmclient: %d %s", e.Status, e.Message)
}

// User is the profile the server returns at login and verify.
type User struct {
	ID     uint   `json:"id"`
	Name   string `json:"nombre"`
	Email  string `json:"email"`
	Role   string `json:"rol"`
	Active bool   `json:"activo"`
}

// ServerStatus is the payload of the public status route.
type ServerStatus struct {
	Message   string `json:"message"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

const defaultTimeout = 15 * time.Second

type Option func(*Session)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) { s.http = c }
}

// Session holds one user's credential against one server. It is safe for
// concurrent use.
type Session struct {
	baseURL string
	http    *http.Client
	store   Storage

	mu    sync.RWMutex
	state State
	token string
	user  *User
}

// New returns an unauthenticated session for the server at baseURL.
func New(baseURL string, store Storage, opts ...Option) *Session {
	s := &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		store:   store,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the cached profile.
func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Restore loads a stored session without contacting the server. A stored
// profile that cannot be decoded clears both keys.
func (s *Session) Restore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, okToken := s.store.Get(TokenKey)
	raw, okUser := s.store.Get(UserKey)
	if !okToken || !okUser || token == "" {
		s.state = StateUnauthenticated
		return false
	}

	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.clearLocked()
		return false
	}
	s.token, s.user, s.state = token, &user, StateAuthenticated
	return true
}

// Login exchanges credentials for a session and stores it. A rejected login
// leaves any session already held untouched.
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	s.mu.Lock()
	prev := s.state
	s.state = StateAuthenticating
	s.mu.Unlock()

	var resp struct {
		User  User   `json:"user"`
		Token string `json:"token"`
	}
	err := s.send(ctx, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err == nil && resp.Token == "" {
		err = errors.New("crmclient: login response without token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateUnauthenticated
		if prev == StateAuthenticated && s.token != "" {
			s.state = StateAuthenticated
		}
		return nil, err
	}
	if err := s.persistLocked(resp.Token, &resp.User); err != nil {
		return nil, errors.Join(err, s.clearLocked())
	}
	s.token, s.user, s.state = resp.Token, &resp.User, StateAuthenticated
	u := resp.User
	return &u, nil
}

// Logout forgets the session. There is no server call.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked()
}

// Verify asks the server for the current profile and refreshes the stored copy.
func (s *Session) Verify(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := s.Do(ctx, http.MethodGet, "/api/auth/verify", nil, &resp); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated {
		return nil, ErrNotAuthenticated
	}
	if err := s.persistLocked(s.token, &resp.User); err != nil {
		return nil, err
	}
	s.user = &resp.User
	u := resp.User
	return &u, nil
}

// Status calls the public status route. No credential is needed.
func (s *Session) Status(ctx context.Context) (*ServerStatus, error) {
	var out ServerStatus
	if err := s.send(ctx, http.MethodGet, "/api", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Do performs an authenticated call. body and out are JSON encoded and
// decoded when non-nil. A 401 answer clears the session and returns
// ErrSessionExpired.
func (s *Session) Do(ctx context.Context, method, path string, body, out any) error {
	s.mu.RLock()
	token, state := s.token, s.state
	s.mu.RUnlock()
	if state != StateAuthenticated {
		return ErrNotAuthenticated
	}

	err := s.send(ctx, method, path, token, body, out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		s.mu.Lock()
		// A concurrent Login may already hold a new credential.
		if s.token == token {
			_ = s.clearLocked()
		}
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionExpired, apiErr.Message)
	}
	return err
}

func (s *Session) send(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("crmclient: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("crmclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("crmclient: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("crmclient: decode response: %w", err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error == "" {
		return &APIError{Status: status, Message: http.StatusText(status)}
	}
	return &APIError{Status: status, Message: envelope.Error}
}

func (s *Session) persistLocked(token string, user *User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.store.Set(TokenKey, token); err != nil {
		return err
	}
	return s.store.Set(UserKey, string(raw))
}

func (s *Session) clearLocked() error {
	s.token, s.user, s.state = "", nil, StateUnauthenticated
	return errors.Join(s.store.Delete(TokenKey), s.store.Delete(UserKey))
}
