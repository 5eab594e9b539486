// Package validate checks request payloads. Every failure is a *Error
// carrying the human-readable label of the first field that failed.
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	PasswordMinLength = 8
	PasswordMaxLength = 250

	// passwordClasses is how many of lower, upper, digit and symbol a
	// password must contain.
	passwordClasses = 3
)

var (
	phonePattern    = regexp.MustCompile(`^[0-9+()#.\s/ext-]+$`)
	userNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)
)

// Error is a validation failure. Message is safe to show to clients.
type Error struct {
	Field   string // JSON name of the failing field
	Rule    string // validator tag that failed
	Message string
}

func (e *Error) Error() string { return e.Message }

// AsError reports whether err is a validation failure and returns it.
func AsError(err error) (*Error, bool) {
	var ve *Error
	ok := errors.As(err, &ve)
	return ve, ok
}

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return PasswordComplexEnough(fl.Field().String())
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return userNamePattern.MatchString(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Struct validates payload, a pointer to one of this package's payload
// types, and returns the first failure as a *Error.
func Struct(payload any) error {
	err := engine().Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	return &Error{
		Field:   fe.Field(),
		Rule:    fe.Tag(),
		Message: label(payload, fe.StructField()),
	}
}

// label returns the `label` tag of field on payload's struct type.
func label(payload any, field string) string {
	t := reflect.TypeOf(payload)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if f, ok := t.FieldByName(field); ok {
		if l := f.Tag.Get("label"); l != "" {
			return l
		}
	}
	return "Invalid value for " + field
}

// PasswordComplexEnough reports whether pw is 8 to 250 characters long and
// mixes at least three of lowercase, uppercase, digits and symbols.
func PasswordComplexEnough(pw string) bool {
	n := utf8.RuneCountInString(pw)
	if n < PasswordMinLength || n > PasswordMaxLength {
		return false
	}

	var lower, upper, digit, symbol int
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = 1
		case unicode.IsUpper(r):
			upper = 1
		case unicode.IsDigit(r):
			digit = 1
		default:
			symbol = 1
		}
	}
	return lower+upper+digit+symbol >= passwordClasses
}
