package domain

import (
	"strings"
	"time"
)

// Gender values accepted on a profile.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// User is an account holder. Optional profile fields are empty when unset.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	UserName     string // optional, unique when set
	Email        string // stored lower-cased
	PasswordHash string // argon2id PHC, or bcrypt for imported rows
	Verified     bool
	Gender       string
	BirthDate    string // YYYY-MM-DD
	PhoneNumber  string
	ProfileImage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserChanges is a partial update. Nil fields are left untouched.
type UserChanges struct {
	FirstName    *string
	LastName     *string
	UserName     *string
	Gender       *string
	BirthDate    *string
	PhoneNumber  *string
	ProfileImage *string
	PasswordHash *string
	Verified     *bool
}

// IsEmpty reports whether c changes nothing.
func (c UserChanges) IsEmpty() bool {
	return c.FirstName == nil &&
		c.LastName == nil &&
		c.UserName == nil &&
		c.Gender == nil &&
		c.BirthDate == nil &&
		c.PhoneNumber == nil &&
		c.ProfileImage == nil &&
		c.PasswordHash == nil &&
		c.Verified == nil
}

// NormalizeEmail is the canonical form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
