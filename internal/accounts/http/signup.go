package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/validate"
	"github.com/aussiebroadwan/accounts/pkg/accountsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

type SignupHandler struct {
	AccountService *service.AccountService
	Transport      httpx.TokenTransport
}

// ServeHTTP godoc
//
//	@Summary		Signup Endpoint
//	@Description	Create an account and start a session. The token is returned in the body and set as the httpOnly "token" cookie.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		accountsdk.SignupRequest								true	"firstName, lastName, email, password"
//	@Success		201		{object}	httpx.Envelope{data=accountsdk.SignupResponse}			"user, token"
//	@Failure		400		{object}	httpx.ErrorEnvelope										"invalid body or field"
//	@Failure		409		{object}	httpx.ErrorEnvelope										"email already in use"
//	@Failure		429		{object}	httpx.ErrorEnvelope										"rate limited"
//	@Router			/signup [post].
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := payloadFrom[validate.Signup](ctx)
	if !ok {
		httpx.WriteError(w, r, httpx.Internal(errors.New("signup payload missing from context")))
		return
	}

	user, token, err := h.AccountService.Signup(ctx, service.SignupInput{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Password:  p.Password,
	})
	if err != nil {
		// Lost a race with a concurrent signup for the same email.
		if errors.Is(err, service.ErrEmailTaken) {
			httpx.WriteError(w, r, httpx.Conflict(emailTakenMessage(p.Email)))
			return
		}
		httpx.WriteError(w, r, httpx.Internal(err))
		return
	}

	h.Transport.Issue(w, token)
	httpx.NoCache(w)
	httpx.WriteData(w, http.StatusCreated, accountsdk.SignupResponse{
		User:  publicUser(user),
		Token: token,
	})
}
