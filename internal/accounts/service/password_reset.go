package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/mailx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// ResetConfirmPath is where reset links point, relative to BaseURL.
const ResetConfirmPath = "/reset-password/confirm"

// PasswordResetService mails password-reset links and redeems them. A link
// carries a fingerprint of the digest it was issued against, so it stops
// working as soon as the password changes.
type PasswordResetService struct {
	Store   store.Store
	Hasher  *cryptox.PasswordHasher
	Tokens  *jwtx.Codec
	Mailer  mailx.Sender
	BaseURL string
}

// RequestReset mails a reset link when email belongs to an account. Unknown
// emails succeed silently so callers cannot probe for accounts.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().FindByKey(ctx, store.ByEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := s.Tokens.IssueReset(IdentityOf(u), cryptox.Fingerprint(u.PasswordHash))
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	msg := mailx.Message{
		To:      u.Email,
		Subject: "Reset your password",
		Body: fmt.Sprintf(
			"Hi %s,\n\nUse the link below to choose a new password. It expires in %s and works once.\n\n%s\n\nIf you did not ask for this you can ignore this email.\n",
			u.FirstName, s.Tokens.ResetTTL(), s.ResetLink(token),
		),
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}

	l.Info("password reset link sent", slog.Int64("user_id", u.ID))
	return nil
}

// ResetLink is the URL a reset token is delivered in.
func (s *PasswordResetService) ResetLink(token string) string {
	return strings.TrimSuffix(s.BaseURL, "/") + ResetConfirmPath + "?token=" + url.QueryEscape(token)
}

// ConfirmReset sets a new password for the user a reset token was issued to.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	claims, err := s.Tokens.VerifyReset(token)
	if err != nil {
		if errors.Is(err, jwtx.ErrInvalidToken) {
			return ErrInvalidResetToken
		}
		return err
	}

	l := slogx.FromContext(ctx).With(slog.Int64("user_id", claims.UserID))

	digest, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().FindByKey(ctx, store.ByID(claims.UserID))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidResetToken
			}
			return err
		}

		fp := cryptox.Fingerprint(u.PasswordHash)
		if subtle.ConstantTimeCompare([]byte(fp), []byte(claims.Fingerprint)) != 1 {
			return ErrInvalidResetToken
		}

		_, err = tx.Users().UpdateByKey(ctx, store.ByID(u.ID), domain.UserChanges{PasswordHash: &digest})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			l.Info("password reset rejected: link used or stale")
		}
		return err
	}

	l.Info("password reset completed")
	return nil
}
