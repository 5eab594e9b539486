package accountsdk

import (
	"context"
	"net/http"
)

// Signup creates an account and returns a Session for it.
func (c *SDKClient) Signup(ctx context.Context, req SignupRequest) (*Session, *User, error) {
	var out SignupResponse
	if err := c.call(ctx, http.MethodPost, "/signup", "", req, &out, http.StatusCreated); err != nil {
		return nil, nil, err
	}
	return c.NewSession(out.Token), &out.User, nil
}

// Login exchanges credentials for a Session.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	var out LoginResponse
	if err := c.call(ctx, http.MethodPost, "/login", "", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return c.NewSession(out.Token), nil
}

// ConfirmPasswordReset redeems a reset token from a mailed link.
func (c *SDKClient) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.call(ctx, http.MethodPost, "/reset-password/confirm", "", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
