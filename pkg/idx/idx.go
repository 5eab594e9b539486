// Package idx mints the identifiers the service hands out: request ids and
// token ids. They are ULIDs, 26 characters of Crockford base32 that sort by
// creation time.
package idx

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// MaxRequestIDLength bounds a caller-supplied request id.
const MaxRequestIDLength = 128

var ErrInvalid = errors.New("idx: invalid id")

// ID is a ULID in its canonical string form.
type ID string

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns an ID stamped with the current time.
func New() ID { return NewAt(time.Now()) }

// NewAt returns an ID stamped with t. IDs minted within the same millisecond
// still increase.
func NewAt(t time.Time) ID {
	mu.Lock()
	defer mu.Unlock()
	return ID(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// Parse accepts a ULID in either case and returns its canonical form.
func Parse(s string) (ID, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return "", errors.Join(ErrInvalid, err)
	}
	return ID(u.String()), nil
}

func (id ID) String() string { return string(id) }

// Time is the millisecond timestamp embedded in id, or the zero time if id
// does not parse.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}

// RequestID returns supplied when it is safe to log and echo back,
// otherwise a fresh ID. Safe means non-empty, at most MaxRequestIDLength
// bytes, and made of letters, digits, '-', '_', '.' or ':'.
func RequestID(supplied string) string {
	if validRequestID(supplied) {
		return supplied
	}
	return New().String()
}

func validRequestID(s string) bool {
	if s == "" || len(s) > MaxRequestIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}
