package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/validate"
	"github.com/aussiebroadwan/accounts/pkg/accountsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

const (
	MsgLoginSuccessful   = "Login Successful"
	MsgIncorrectPassword = "incorrect password or email"
)

type LoginHandler struct {
	AccountService *service.AccountService
	Transport      httpx.TokenTransport
}

// ServeHTTP godoc
//
//	@Summary		Login Endpoint
//	@Description	Log in with an email or user name. The token is returned in the body and set as the httpOnly "token" cookie.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		accountsdk.LoginRequest							true	"usernameOrEmail, password"
//	@Success		200		{object}	httpx.Envelope{data=accountsdk.LoginResponse}	"message, token"
//	@Failure		400		{object}	httpx.ErrorEnvelope								"invalid body or field"
//	@Failure		401		{object}	httpx.ErrorEnvelope								"incorrect password"
//	@Failure		404		{object}	httpx.ErrorEnvelope								"unknown user"
//	@Failure		429		{object}	httpx.ErrorEnvelope								"rate limited"
//	@Router			/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, okPayload := payloadFrom[validate.Login](ctx)
	user, okUser := userFrom(ctx)
	if !okPayload || !okUser {
		httpx.WriteError(w, r, httpx.Internal(errors.New("login payload missing from context")))
		return
	}

	token, err := h.AccountService.Login(ctx, user, p.Password)
	if err != nil {
		if errors.Is(err, service.ErrIncorrectPassword) {
			httpx.WriteError(w, r, httpx.Unauthorized(MsgIncorrectPassword))
			return
		}
		httpx.WriteError(w, r, httpx.Internal(err))
		return
	}

	h.Transport.Issue(w, token)
	httpx.NoCache(w)
	httpx.WriteData(w, http.StatusOK, accountsdk.LoginResponse{
		Message: MsgLoginSuccessful,
		Token:   token,
	})
}
