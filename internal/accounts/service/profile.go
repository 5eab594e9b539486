package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

type ProfileService struct {
	Store store.Store
}

// Get fetches the profile of userID.
func (s *ProfileService) Get(ctx context.Context, userID int64) (domain.User, error) {
	u, err := s.Store.Users().FindByKey(ctx, store.ByID(userID))
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// Update applies changes to the profile of userID. A user name held by
// someone else, in any case, is ErrUserNameTaken.
func (s *ProfileService) Update(ctx context.Context, userID int64, changes domain.UserChanges) (domain.User, error) {
	// Profile updates never touch credentials.
	changes.PasswordHash = nil
	changes.Verified = nil

	u, err := s.Store.Users().UpdateByKey(ctx, store.ByID(userID), changes)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.User{}, ErrUserNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return domain.User{}, ErrUserNameTaken
	case err != nil:
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("profile updated", slog.Int64("user_id", userID))
	return u, nil
}
