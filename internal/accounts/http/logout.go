package http

import (
	"net/http"

	"github.com/aussiebroadwan/accounts/pkg/accountsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

const MsgLogoutSuccessful = "Logout Successful"

// LogoutHandler clears the token cookie. Tokens are stateless, so one kept
// by the client stays valid until it expires.
type LogoutHandler struct {
	Transport httpx.TokenTransport
}

// ServeHTTP godoc
//
//	@Summary		Logout Endpoint
//	@Description	Clear the "token" cookie
//	@Tags			Accounts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	httpx.Envelope{data=accountsdk.LoginResponse}	"message, empty token"
//	@Failure		400	{object}	httpx.ErrorEnvelope								"invalid token"
//	@Failure		401	{object}	httpx.ErrorEnvelope								"token required"
//	@Router			/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Transport.Clear(w)
	l := slogx.FromContext(r.Context())
	if claims, ok := httpx.ClaimsFromContext(r.Context()); ok && claims.ExpiresAt != nil {
		l = l.With("token_id", claims.ID, "token_expires_at", claims.ExpiresAt.Time)
	}
	l.Info("user logged out")

	httpx.NoCache(w)
	httpx.WriteData(w, http.StatusOK, accountsdk.LoginResponse{
		Message: MsgLogoutSuccessful,
		Token:   "",
	})
}
