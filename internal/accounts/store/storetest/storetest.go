// Package storetest is a conformance suite every store driver runs.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty, migrated store.
type Factory func(t *testing.T) store.Store

func ptr[T any](v T) *T { return &v }

// NewUser returns a valid user with the given email.
func NewUser(email string) domain.User {
	return domain.User{
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
	}
}

// Run runs the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndFind", func(t *testing.T) { testCreateAndFind(t, newStore(t)) })
	t.Run("EmailIsCaseInsensitive", func(t *testing.T) { testEmailCaseInsensitive(t, newStore(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("ConcurrentDuplicateEmail", func(t *testing.T) { testConcurrentDuplicateEmail(t, newStore(t)) })
	t.Run("UpdateByKey", func(t *testing.T) { testUpdateByKey(t, newStore(t)) })
	t.Run("UpdateUserNameCollision", func(t *testing.T) { testUpdateUserNameCollision(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("WithTx", func(t *testing.T) { testWithTx(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

func testCreateAndFind(t *testing.T, s store.Store) {
	ctx := context.Background()

	u := NewUser("Jane@Example.com")
	u.UserName = "jane_doe"
	u.Gender = domain.GenderFemale
	u.BirthDate = "1990-04-01"

	created, err := s.Users().Create(ctx, u)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "jane@example.com", created.Email)
	require.Equal(t, "jane_doe", created.UserName)
	require.Equal(t, u.PasswordHash, created.PasswordHash)
	require.False(t, created.Verified)
	require.Empty(t, created.PhoneNumber)
	require.False(t, created.CreatedAt.IsZero())

	cases := []struct {
		name string
		key  store.Key
	}{
		{"by id", store.ByID(created.ID)},
		{"by email", store.ByEmail("jane@example.com")},
		{"by user name", store.ByUserName("jane_doe")},
		{"by user name any case", store.ByUserName("JANE_DOE")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Users().FindByKey(ctx, tc.key)
			require.NoError(t, err)
			require.Equal(t, created.ID, got.ID)
			require.Equal(t, "1990-04-01", got.BirthDate)
			require.Equal(t, domain.GenderFemale, got.Gender)
		})
	}

	n, err := s.Users().Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func testEmailCaseInsensitive(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Users().Create(ctx, NewUser("jane@example.com"))
	require.NoError(t, err)

	got, err := s.Users().FindByKey(ctx, store.ByEmail("JANE@EXAMPLE.COM"))
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", got.Email)
}

func testDuplicateEmail(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Users().Create(ctx, NewUser("jane@example.com"))
	require.NoError(t, err)

	_, err = s.Users().Create(ctx, NewUser("JANE@example.com"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	n, err := s.Users().Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func testConcurrentDuplicateEmail(t *testing.T, s store.Store) {
	ctx := context.Background()
	const workers = 8

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dups int
		other    []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Users().Create(ctx, NewUser("race@example.com"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, store.ErrAlreadyExists):
				dups++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	require.Equal(t, 1, ok)
	require.Equal(t, workers-1, dups)

	n, err := s.Users().Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func testUpdateByKey(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.Users().Create(ctx, NewUser("jane@example.com"))
	require.NoError(t, err)

	updated, err := s.Users().UpdateByKey(ctx, store.ByID(created.ID), domain.UserChanges{
		FirstName:   ptr("Janet"),
		UserName:    ptr("janet"),
		PhoneNumber: ptr("+61 400 000 000"),
	})
	require.NoError(t, err)
	require.Equal(t, "Janet", updated.FirstName)
	require.Equal(t, "Doe", updated.LastName)
	require.Equal(t, "janet", updated.UserName)
	require.Equal(t, "+61 400 000 000", updated.PhoneNumber)
	require.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	// Rename through the user name key itself.
	renamed, err := s.Users().UpdateByKey(ctx, store.ByUserName("janet"), domain.UserChanges{UserName: ptr("jd")})
	require.NoError(t, err)
	require.Equal(t, "jd", renamed.UserName)

	// Password changes through the email key.
	hash := "$argon2id$v=19$m=1024,t=1,p=1$bmV3$bmV3"
	changed, err := s.Users().UpdateByKey(ctx, store.ByEmail("JANE@example.com"), domain.UserChanges{PasswordHash: &hash})
	require.NoError(t, err)
	require.Equal(t, hash, changed.PasswordHash)

	// Clearing an optional field stores NULL.
	cleared, err := s.Users().UpdateByKey(ctx, store.ByID(created.ID), domain.UserChanges{PhoneNumber: ptr("")})
	require.NoError(t, err)
	require.Empty(t, cleared.PhoneNumber)
}

func testUpdateUserNameCollision(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := NewUser("a@example.com")
	a.UserName = "taken"
	_, err := s.Users().Create(ctx, a)
	require.NoError(t, err)

	b, err := s.Users().Create(ctx, NewUser("b@example.com"))
	require.NoError(t, err)

	_, err = s.Users().UpdateByKey(ctx, store.ByID(b.ID), domain.UserChanges{UserName: ptr("TAKEN")})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Users().FindByKey(ctx, store.ByEmail("nobody@example.com"))
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().FindByKey(ctx, store.ByID(404))
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().UpdateByKey(ctx, store.ByID(404), domain.UserChanges{FirstName: ptr("x")})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().FindByKey(ctx, store.Key{})
	require.Error(t, err)
}

func testWithTx(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.Users().Create(ctx, NewUser("jane@example.com"))
	require.NoError(t, err)

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx store.Tx) error {
			if _, err := tx.Users().UpdateByKey(ctx, store.ByID(created.ID), domain.UserChanges{FirstName: ptr("Rolled")}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := s.Users().FindByKey(ctx, store.ByID(created.ID))
		require.NoError(t, err)
		require.Equal(t, "Jane", got.FirstName)
	})

	t.Run("commit on success", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			_, err := tx.Users().UpdateByKey(ctx, store.ByID(created.ID), domain.UserChanges{FirstName: ptr("Committed")})
			return err
		})
		require.NoError(t, err)

		got, err := s.Users().FindByKey(ctx, store.ByID(created.ID))
		require.NoError(t, err)
		require.Equal(t, "Committed", got.FirstName)
	})

	t.Run("no nested tx", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.WithTx(ctx, func(store.Tx) error { return nil })
		})
		require.Error(t, err)
	})
}
