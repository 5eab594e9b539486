package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/validate"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

const (
	MsgInvalidJSON   = "Invalid JSON body"
	MsgLoginNotFound = "username or email does not match anything in our database"
)

type gateKey int

const (
	keyPayload gateKey = iota
	keyUser
)

func withPayload(ctx context.Context, p any) context.Context {
	return context.WithValue(ctx, keyPayload, p)
}

// payloadFrom returns the payload an admission step stored for the handler.
func payloadFrom[T any](ctx context.Context) (T, bool) {
	p, ok := ctx.Value(keyPayload).(T)
	return p, ok
}

func userFrom(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(keyUser).(domain.User)
	return u, ok
}

// Gate holds the admission steps run ahead of handlers. Each step either
// stores what it found in the request context and calls next, or writes the
// error envelope and stops the chain.
type Gate struct {
	Accounts *service.AccountService
}

// VerifySignup validates the signup body and rejects emails already in use.
func (g *Gate) VerifySignup(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var p validate.Signup
		if !decodeAndValidate(w, r, &p) {
			return
		}

		exists, err := g.Accounts.EmailExists(ctx, p.Email)
		if err != nil {
			httpx.WriteError(w, r, httpx.Internal(err))
			return
		}
		if exists {
			httpx.WriteError(w, r, httpx.Conflict(emailTakenMessage(p.Email)))
			return
		}

		next.ServeHTTP(w, r.WithContext(withPayload(ctx, p)))
	})
}

// VerifyLogin validates the login body and resolves the account it names.
func (g *Gate) VerifyLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var p validate.Login
		if !decodeAndValidate(w, r, &p) {
			return
		}

		u, err := g.Accounts.FindForLogin(ctx, p.UsernameOrEmail)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				httpx.WriteError(w, r, httpx.NotFound(MsgLoginNotFound))
				return
			}
			httpx.WriteError(w, r, httpx.Internal(err))
			return
		}

		ctx = withPayload(ctx, p)
		ctx = context.WithValue(ctx, keyUser, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// VerifyPasswordReset accepts either a link request ({email}) or a password
// change ({oldPassword, newPassword, confirmPassword}). Every validation
// failure gets the same message.
func (g *Gate) VerifyPasswordReset(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		if err := httpx.DecodeJSON(r, &raw, false); err != nil {
			httpx.WriteError(w, r, httpx.BadRequest(MsgInvalidJSON))
			return
		}

		var probe struct {
			Email *string `json:"email"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			httpx.WriteError(w, r, httpx.BadRequest(MsgInvalidJSON))
			return
		}

		var payload any
		if probe.Email != nil {
			payload = &validate.PasswordResetRequest{}
		} else {
			payload = &validate.PasswordChange{}
		}
		if err := json.Unmarshal(raw, payload); err != nil {
			httpx.WriteError(w, r, httpx.BadRequest(MsgInvalidJSON))
			return
		}
		if err := validate.Struct(payload); err != nil {
			writeValidation(w, r, err, validate.MsgPasswordsMismatch)
			return
		}

		next.ServeHTTP(w, r.WithContext(withPayload(r.Context(), payload)))
	})
}

// VerifyProfileUpdate validates a partial profile. Unknown fields are
// rejected and at least one field must be present.
func (g *Gate) VerifyProfileUpdate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p validate.ProfileUpdate
		if err := httpx.DecodeJSON(r, &p, true); err != nil {
			httpx.WriteError(w, r, httpx.BadRequest(MsgInvalidJSON))
			return
		}
		if err := validate.Profile(&p); err != nil {
			writeValidation(w, r, err, "")
			return
		}

		next.ServeHTTP(w, r.WithContext(withPayload(r.Context(), p)))
	})
}

// decodeAndValidate decodes the body into p and validates it. It writes
// the error response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, p any) bool {
	if err := httpx.DecodeJSON(r, p, false); err != nil {
		httpx.WriteError(w, r, httpx.BadRequest(MsgInvalidJSON))
		return false
	}
	if err := validate.Struct(p); err != nil {
		writeValidation(w, r, err, "")
		return false
	}
	return true
}

// writeValidation writes a validation failure as 400. A non-empty override
// replaces the field label.
func writeValidation(w http.ResponseWriter, r *http.Request, err error, override string) {
	ve, ok := validate.AsError(err)
	if !ok {
		httpx.WriteError(w, r, httpx.Internal(err))
		return
	}
	msg := ve.Message
	if override != "" {
		msg = override
	}
	httpx.WriteError(w, r, httpx.BadRequest(msg))
}

func emailTakenMessage(email string) string {
	return fmt.Sprintf("User with email \"%s\" already exists", email)
}

func userNameTakenMessage(name string) string {
	return fmt.Sprintf("Username \"%s\" is already taken", name)
}
