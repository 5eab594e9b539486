package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/jmoiron/sqlx"
)

// ErrInvalidKey is returned for a zero store.Key.
var ErrInvalidKey = errors.New("sqldb: invalid key")

const userColumns = `id, first_name, last_name, user_name, email, password, verified,
	gender, birth_date, phone_number, profile_image, created_at, updated_at`

type userRow struct {
	ID           int64          `db:"id"`
	FirstName    string         `db:"first_name"`
	LastName     string         `db:"last_name"`
	UserName     sql.NullString `db:"user_name"`
	Email        string         `db:"email"`
	Password     string         `db:"password"`
	Verified     bool           `db:"verified"`
	Gender       sql.NullString `db:"gender"`
	BirthDate    sql.NullString `db:"birth_date"`
	PhoneNumber  sql.NullString `db:"phone_number"`
	ProfileImage sql.NullString `db:"profile_image"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r userRow) domain() domain.User {
	return domain.User{
		ID:           r.ID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		UserName:     r.UserName.String,
		Email:        r.Email,
		PasswordHash: r.Password,
		Verified:     r.Verified,
		Gender:       r.Gender.String,
		BirthDate:    r.BirthDate.String,
		PhoneNumber:  r.PhoneNumber.String,
		ProfileImage: r.ProfileImage.String,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type usersRepo struct {
	q       sqlx.ExtContext
	bind    int
	dialect Dialect
	now     func() time.Time
}

func newUsersRepo(q sqlx.ExtContext, d Dialect) *usersRepo {
	return &usersRepo{
		q:       q,
		bind:    sqlx.BindType(d.DriverName),
		dialect: d,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *usersRepo) rebind(query string) string { return sqlx.Rebind(r.bind, query) }

// where renders the predicate for k. Columns come from the store.Key
// constructors only, never from callers.
func where(k store.Key) (string, error) {
	switch k.Column() {
	case "id":
		return "id = ?", nil
	case "email", "user_name":
		return "lower(" + k.Column() + ") = lower(?)", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, k.Column())
	}
}

func (r *usersRepo) FindByKey(ctx context.Context, k store.Key) (domain.User, error) {
	pred, err := where(k)
	if err != nil {
		return domain.User{}, err
	}

	var row userRow
	query := r.rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + pred)
	if err := sqlx.GetContext(ctx, r.q, &row, query, k.Value()); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return row.domain(), nil
}

func (r *usersRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	now := r.now()
	query := r.rebind(`INSERT INTO users (
		first_name, last_name, user_name, email, password, verified,
		gender, birth_date, phone_number, profile_image, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	err := r.q.QueryRowxContext(ctx, query,
		u.FirstName,
		u.LastName,
		mapStringNull(u.UserName),
		domain.NormalizeEmail(u.Email),
		u.PasswordHash,
		u.Verified,
		mapStringNull(u.Gender),
		mapStringNull(u.BirthDate),
		mapStringNull(u.PhoneNumber),
		mapStringNull(u.ProfileImage),
		now,
		now,
	).Scan(&id)
	if err != nil {
		return domain.User{}, r.mapWriteError(err)
	}

	return r.FindByKey(ctx, store.ByID(id))
}

func (r *usersRepo) UpdateByKey(ctx context.Context, k store.Key, c domain.UserChanges) (domain.User, error) {
	pred, err := where(k)
	if err != nil {
		return domain.User{}, err
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		sets = append(sets, column+" = ?")
		args = append(args, v)
	}
	if c.FirstName != nil {
		set("first_name", *c.FirstName)
	}
	if c.LastName != nil {
		set("last_name", *c.LastName)
	}
	if c.UserName != nil {
		set("user_name", mapOptionalString(c.UserName))
	}
	if c.Gender != nil {
		set("gender", mapOptionalString(c.Gender))
	}
	if c.BirthDate != nil {
		set("birth_date", mapOptionalString(c.BirthDate))
	}
	if c.PhoneNumber != nil {
		set("phone_number", mapOptionalString(c.PhoneNumber))
	}
	if c.ProfileImage != nil {
		set("profile_image", mapOptionalString(c.ProfileImage))
	}
	if c.PasswordHash != nil {
		set("password", *c.PasswordHash)
	}
	if c.Verified != nil {
		set("verified", *c.Verified)
	}
	set("updated_at", r.now())
	args = append(args, k.Value())

	query := r.rebind(`UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE ` + pred)
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.User{}, r.mapWriteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.User{}, err
	}
	if n == 0 {
		return domain.User{}, store.ErrNotFound
	}

	// The key may have changed (user name), so re-read by the same key only
	// when it still identifies the row.
	if k.Column() == "user_name" && c.UserName != nil {
		return r.FindByKey(ctx, store.ByUserName(*c.UserName))
	}
	return r.FindByKey(ctx, k)
}

func (r *usersRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := sqlx.GetContext(ctx, r.q, &n, `SELECT count(*) FROM users`); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *usersRepo) mapWriteError(err error) error {
	if r.dialect.IsUniqueViolation != nil && r.dialect.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", store.ErrAlreadyExists, err)
	}
	return err
}
