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
	MsgPasswordChanged    = "Password has been changed successfully"
	MsgResetLinkSent      = "If the email is registered, a reset link has been sent"
	MsgUserInTokenMissing = "Sorry, user in token does not exist"
	MsgOldPasswordWrong   = "Old password is incorrect"
)

type ResetPasswordHandler struct {
	AccountService       *service.AccountService
	PasswordResetService *service.PasswordResetService
}

// ServeHTTP godoc
//
//	@Summary		Change Password or Request Reset Link
//	@Description	With oldPassword, newPassword and confirmPassword the caller's password is changed.
//	@Description	With email a reset link is mailed if the email belongs to an account. The response is the same either way.
//	@Tags			Passwords
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		accountsdk.PasswordChangeRequest					true	"oldPassword, newPassword, confirmPassword (or email)"
//	@Success		200		{object}	httpx.Envelope{data=accountsdk.MessageResponse}		"message"
//	@Failure		400		{object}	httpx.ErrorEnvelope									"invalid body, token or passwords"
//	@Failure		401		{object}	httpx.ErrorEnvelope									"token required or old password incorrect"
//	@Failure		404		{object}	httpx.ErrorEnvelope									"user in token does not exist"
//	@Failure		429		{object}	httpx.ErrorEnvelope									"rate limited"
//	@Router			/reset-password [post].
func (h *ResetPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch p := ctx.Value(keyPayload).(type) {
	case *validate.PasswordResetRequest:
		if err := h.PasswordResetService.RequestReset(ctx, p.Email); err != nil {
			httpx.WriteError(w, r, httpx.Internal(err))
			return
		}
		httpx.WriteData(w, http.StatusOK, accountsdk.MessageResponse{Message: MsgResetLinkSent})

	case *validate.PasswordChange:
		userID, ok := httpx.UserIDFromContext(ctx)
		if !ok {
			httpx.WriteError(w, r, httpx.Unauthorized(httpx.MsgTokenRequired))
			return
		}

		err := h.AccountService.ChangePassword(ctx, userID, p.OldPassword, p.NewPassword)
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			httpx.WriteError(w, r, httpx.NotFound(MsgUserInTokenMissing))
		case errors.Is(err, service.ErrIncorrectPassword):
			httpx.WriteError(w, r, httpx.Unauthorized(MsgOldPasswordWrong))
		case err != nil:
			httpx.WriteError(w, r, httpx.Internal(err))
		default:
			httpx.WriteData(w, http.StatusOK, accountsdk.MessageResponse{Message: MsgPasswordChanged})
		}

	default:
		httpx.WriteError(w, r, httpx.Internal(errors.New("password payload missing from context")))
	}
}

type ConfirmResetHandler struct {
	PasswordResetService *service.PasswordResetService
}

// ServeHTTP godoc
//
//	@Summary		Confirm Password Reset
//	@Description	Set a new password using the token from a mailed reset link. A link works once.
//	@Description	The token may be sent in the body or, as in the link, in the token query parameter.
//	@Tags			Passwords
//	@Accept			json
//	@Produce		json
//	@Param			token	query		string												false	"Reset token when not in the body"
//	@Param			request	body		accountsdk.PasswordResetConfirmRequest				true	"token, newPassword, confirmPassword"
//	@Success		200		{object}	httpx.Envelope{data=accountsdk.MessageResponse}		"message"
//	@Failure		400		{object}	httpx.ErrorEnvelope									"invalid body, token or passwords"
//	@Failure		429		{object}	httpx.ErrorEnvelope									"rate limited"
//	@Router			/reset-password/confirm [post].
func (h *ConfirmResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var p validate.PasswordResetConfirm
	if err := httpx.DecodeJSON(r, &p, false); err != nil {
		httpx.WriteError(w, r, httpx.BadRequest(MsgInvalidJSON))
		return
	}
	if p.Token == "" {
		p.Token = r.URL.Query().Get("token")
	}
	if err := validate.Struct(&p); err != nil {
		writeValidation(w, r, err, "")
		return
	}

	err := h.PasswordResetService.ConfirmReset(ctx, p.Token, p.NewPassword)
	switch {
	case errors.Is(err, service.ErrInvalidResetToken):
		httpx.WriteError(w, r, httpx.BadRequest(httpx.MsgTokenInvalid))
	case err != nil:
		httpx.WriteError(w, r, httpx.Internal(err))
	default:
		httpx.WriteData(w, http.StatusOK, accountsdk.MessageResponse{Message: MsgPasswordChanged})
	}
}
