package httpx

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// Kind classifies an Error and decides its HTTP status.
type Kind uint8

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindConflict
	KindTooManyRequests
)

// Status returns the HTTP status code for k.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// InternalMessage is what clients see for any unclassified failure.
const InternalMessage = "Something went wrong"

// Error is an error with a client-facing message. Err, when set, is the
// underlying cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func BadRequest(msg string) *Error   { return &Error{Kind: KindBadRequest, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }

func TooManyRequests(msg string) *Error {
	return &Error{Kind: KindTooManyRequests, Message: msg}
}

// Internal wraps err as a 500 whose message is never shown to clients.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: InternalMessage, Err: err}
}

// WriteError writes err as an error envelope. Anything that is not an
// *Error, or is KindInternal, is logged and reported as InternalMessage.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var he *Error
	if !errors.As(err, &he) {
		he = Internal(err)
	}

	msg := he.Message
	if he.Kind == KindInternal {
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		msg = InternalMessage
	}

	WriteJSON(w, he.Kind.Status(), ErrorEnvelope{
		Status: StatusError,
		Error:  ErrorBody{Message: msg},
	})
}
