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
	MsgProfileUpdated = "Profile update was successful"
	MsgUserNotFound   = "User not found"
)

type ProfileHandler struct {
	ProfileService *service.ProfileService
}

// HandleGet godoc
//
//	@Summary		Get Profile
//	@Description	Profile of the user the token was issued to
//	@Tags			Profile
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	httpx.Envelope{data=accountsdk.ProfileResponse}	"user"
//	@Failure		400	{object}	httpx.ErrorEnvelope								"invalid token"
//	@Failure		401	{object}	httpx.ErrorEnvelope								"token required"
//	@Failure		404	{object}	httpx.ErrorEnvelope								"user not found"
//	@Router			/profile [get].
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		httpx.WriteError(w, r, httpx.Unauthorized(httpx.MsgTokenRequired))
		return
	}

	user, err := h.ProfileService.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			httpx.WriteError(w, r, httpx.NotFound(MsgUserNotFound))
			return
		}
		httpx.WriteError(w, r, httpx.Internal(err))
		return
	}

	httpx.WriteData(w, http.StatusOK, accountsdk.ProfileResponse{User: publicUser(user)})
}

// HandleUpdate godoc
//
//	@Summary		Update Profile
//	@Description	Change any of firstName, lastName, userName, gender, birthDate, phoneNumber and profileImage. Absent fields are kept.
//	@Tags			Profile
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		accountsdk.ProfileUpdateRequest							true	"fields to change"
//	@Success		200		{object}	httpx.Envelope{data=accountsdk.ProfileUpdateResponse}	"message, user"
//	@Failure		400		{object}	httpx.ErrorEnvelope										"invalid body, field or token"
//	@Failure		401		{object}	httpx.ErrorEnvelope										"token required"
//	@Failure		404		{object}	httpx.ErrorEnvelope										"user not found"
//	@Failure		409		{object}	httpx.ErrorEnvelope										"user name taken"
//	@Failure		429		{object}	httpx.ErrorEnvelope										"rate limited"
//	@Router			/profile [put].
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		httpx.WriteError(w, r, httpx.Unauthorized(httpx.MsgTokenRequired))
		return
	}
	p, ok := payloadFrom[validate.ProfileUpdate](ctx)
	if !ok {
		httpx.WriteError(w, r, httpx.Internal(errors.New("profile payload missing from context")))
		return
	}

	user, err := h.ProfileService.Update(ctx, userID, p.Changes())
	switch {
	case errors.Is(err, service.ErrUserNameTaken) && p.UserName != nil:
		httpx.WriteError(w, r, httpx.Conflict(userNameTakenMessage(*p.UserName)))
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, r, httpx.NotFound(MsgUserNotFound))
	case err != nil:
		httpx.WriteError(w, r, httpx.Internal(err))
	default:
		httpx.WriteData(w, http.StatusOK, accountsdk.ProfileUpdateResponse{
			Message: MsgProfileUpdated,
			User:    publicUser(user),
		})
	}
}
