package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Users are reached through a sub-repository so the same code
// runs inside and outside a transaction.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. It commits when fn returns nil
	// and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users is keyed access to the users table.
type Users interface {
	// FindByKey returns the single user matching k, or ErrNotFound.
	FindByKey(ctx context.Context, k Key) (domain.User, error)

	// UpdateByKey applies changes to the user matching k, bumps updated_at and
	// returns the updated row. ErrNotFound when nothing matches and
	// ErrAlreadyExists when a unique column would collide.
	UpdateByKey(ctx context.Context, k Key, changes domain.UserChanges) (domain.User, error)

	// Create inserts u and returns it with its id and timestamps.
	// ErrAlreadyExists when the email or user name is taken.
	Create(ctx context.Context, u domain.User) (domain.User, error)

	// Count returns the number of users.
	Count(ctx context.Context) (int64, error)
}

// Key identifies a single user by a unique column.
type Key struct {
	column string
	value  any
}

// ByID matches the primary key.
func ByID(id int64) Key { return Key{column: "id", value: id} }

// ByEmail matches the email, ignoring case.
func ByEmail(email string) Key {
	return Key{column: "email", value: domain.NormalizeEmail(email)}
}

// ByUserName matches the user name, ignoring case.
func ByUserName(name string) Key { return Key{column: "user_name", value: name} }

// Column is the users column k matches on.
func (k Key) Column() string { return k.column }

// Value is the value k matches.
func (k Key) Value() any { return k.value }

// CaseInsensitive reports whether the column is compared with lower().
func (k Key) CaseInsensitive() bool { return k.column == "email" || k.column == "user_name" }

func (k Key) String() string { return fmt.Sprintf("%s=%v", k.column, k.value) }
