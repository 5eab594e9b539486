package accountsdk

import (
	"context"
	"net/http"
	"sync"
)

// Session is an authenticated client. Session tokens are not refreshed, a
// new login is needed once one expires.
type Session struct {
	client *SDKClient

	mu    sync.RWMutex
	token string
}

// Token returns the session token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) call(ctx context.Context, method, path string, body, target any) error {
	return s.client.call(ctx, method, path, s.Token(), body, target, http.StatusOK)
}

// GetProfile returns the signed-in user.
func (s *Session) GetProfile(ctx context.Context) (*User, error) {
	var out ProfileResponse
	if err := s.call(ctx, http.MethodGet, "/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateProfile changes the non-nil fields of req.
func (s *Session) UpdateProfile(ctx context.Context, req ProfileUpdateRequest) (*User, error) {
	var out ProfileUpdateResponse
	if err := s.call(ctx, http.MethodPut, "/profile", req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ChangePassword replaces the password after checking the old one. The
// session token stays valid.
func (s *Session) ChangePassword(ctx context.Context, req PasswordChangeRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := s.call(ctx, http.MethodPost, "/reset-password", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestPasswordReset asks for a reset link to be mailed to req.Email.
func (s *Session) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := s.call(ctx, http.MethodPost, "/reset-password", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout clears the token cookie and forgets the token locally. Tokens are
// stateless, so a copy kept elsewhere stays valid until it expires.
func (s *Session) Logout(ctx context.Context) error {
	var out LoginResponse
	if err := s.call(ctx, http.MethodPost, "/logout", nil, &out); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
