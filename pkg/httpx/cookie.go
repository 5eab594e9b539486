package httpx

import (
	"net/http"
	"strings"
	"time"
)

// TokenCookieName is the cookie carrying the session token.
const TokenCookieName = "token"

// AccessTokenHeader is the legacy header some clients send the token in.
const AccessTokenHeader = "x-access-token"

// TokenTransport moves session tokens between the server and the client:
// out through an httpOnly cookie, in through the cookie or a header.
type TokenTransport struct {
	MaxAge time.Duration
	Secure bool
}

// Issue sets the token cookie on w.
func (t TokenTransport) Issue(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(t.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   t.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear empties the token cookie and expires it immediately.
func (t TokenTransport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ExtractToken returns the token presented with r, checking the cookie,
// then an Authorization bearer, then the x-access-token header. It returns
// "" when none is present.
func ExtractToken(r *http.Request) string {
	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	if authz := r.Header.Get("Authorization"); authz != "" {
		scheme, raw, ok := strings.Cut(authz, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if raw = strings.TrimSpace(raw); raw != "" {
				return raw
			}
		}
	}

	return strings.TrimSpace(r.Header.Get(AccessTokenHeader))
}
