package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

var (
	ErrEmailTaken        = errors.New("email_taken")
	ErrUserNotFound      = errors.New("user_not_found")
	ErrIncorrectPassword = errors.New("incorrect_password")
	ErrUserNameTaken     = errors.New("username_taken")
	ErrInvalidResetToken = errors.New("invalid_reset_token")
)

// IdentityOf is the token identity for u.
func IdentityOf(u domain.User) jwtx.Identity {
	return jwtx.Identity{
		UserID:    u.ID,
		Email:     u.Email,
		UserName:  u.UserName,
		FirstName: u.FirstName,
		Verified:  u.Verified,
	}
}

type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type AccountService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher
	Tokens *jwtx.Codec
}

// EmailExists reports whether an account already uses email.
func (s *AccountService) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.Store.Users().FindByKey(ctx, store.ByEmail(email))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// FindForLogin resolves a login identifier, trying it as an email first and
// then as a user name.
func (s *AccountService) FindForLogin(ctx context.Context, usernameOrEmail string) (domain.User, error) {
	users := s.Store.Users()

	u, err := users.FindByKey(ctx, store.ByEmail(usernameOrEmail))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	u, err = users.FindByKey(ctx, store.ByUserName(usernameOrEmail))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// Signup creates an account and returns it with a session token. Two
// concurrent signups for one email are settled by the store, the loser gets
// ErrEmailTaken.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (domain.User, string, error) {
	l := slogx.FromContext(ctx)

	digest, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	u, err := s.Store.Users().Create(ctx, domain.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        domain.NormalizeEmail(in.Email),
		PasswordHash: digest,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, "", ErrEmailTaken
		}
		return domain.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.IssueToken(u)
	if err != nil {
		return domain.User{}, "", err
	}

	l.Info("user signed up", slog.Int64("user_id", u.ID))
	return u, token, nil
}

// Login checks password against u and returns a session token. Digests made
// with old parameters, or by bcrypt, are upgraded on the way through.
func (s *AccountService) Login(ctx context.Context, u domain.User, password string) (string, error) {
	l := slogx.FromContext(ctx).With(slog.Int64("user_id", u.ID))

	if !s.Hasher.Verify(password, u.PasswordHash) {
		l.Info("login failed: incorrect password")
		return "", ErrIncorrectPassword
	}

	if s.Hasher.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, l, u, password)
	}

	token, err := s.IssueToken(u)
	if err != nil {
		return "", err
	}

	l.Info("user logged in")
	return token, nil
}

// rehash is best effort. A failure leaves the old digest working.
func (s *AccountService) rehash(ctx context.Context, l *slog.Logger, u domain.User, password string) {
	digest, err := s.Hasher.Hash(password)
	if err != nil {
		l.Warn("password rehash failed", "err", err)
		return
	}
	if _, err := s.Store.Users().UpdateByKey(ctx, store.ByID(u.ID), domain.UserChanges{PasswordHash: &digest}); err != nil {
		l.Warn("password rehash not saved", "err", err)
		return
	}
	l.Info("password digest upgraded")
}

// ChangePassword replaces the password of userID after checking the old one.
// The update only lands if the digest has not changed since it was checked.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	l := slogx.FromContext(ctx).With(slog.Int64("user_id", userID))

	u, err := s.Store.Users().FindByKey(ctx, store.ByID(userID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !s.Hasher.Verify(oldPassword, u.PasswordHash) {
		l.Info("password change rejected: old password incorrect")
		return ErrIncorrectPassword
	}

	digest, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Users().FindByKey(ctx, store.ByID(userID))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if current.PasswordHash != u.PasswordHash {
			return ErrIncorrectPassword
		}
		_, err = tx.Users().UpdateByKey(ctx, store.ByID(userID), domain.UserChanges{PasswordHash: &digest})
		return err
	})
	if err != nil {
		return err
	}

	l.Info("password changed")
	return nil
}

// IssueToken returns a session token for u.
func (s *AccountService) IssueToken(u domain.User) (string, error) {
	token, err := s.Tokens.Issue(IdentityOf(u))
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
