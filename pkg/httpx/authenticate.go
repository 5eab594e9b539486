package httpx

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

const (
	MsgTokenRequired = "Access denied, Token required"
	MsgTokenInvalid  = "The token provided was invalid"
)

// Authenticate admits requests carrying a token v accepts and stores its
// claims in the request context. A missing token is a 401, a token that
// fails verification is a 400.
func Authenticate(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := ExtractToken(r)
			if raw == "" {
				WriteError(w, r, Unauthorized(MsgTokenRequired))
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				if !errors.Is(err, jwtx.ErrInvalidToken) {
					WriteError(w, r, Internal(err))
					return
				}
				slogx.FromContext(ctx).Warn("token verify failed", "err", err)
				WriteError(w, r, BadRequest(MsgTokenInvalid))
				return
			}

			ctx = WithClaims(ctx, claims)
			ctx = slogx.With(ctx, "user_id", claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
