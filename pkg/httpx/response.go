package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// MaxBodyBytes bounds every decoded JSON request body.
const MaxBodyBytes = 1 << 20

// Envelope wraps every successful response body.
type Envelope struct {
	Status string `json:"status" example:"success"`
	Data   any    `json:"data"`
}

// ErrorEnvelope wraps every failed response body.
type ErrorEnvelope struct {
	Status string    `json:"status" example:"error"`
	Error  ErrorBody `json:"error"`
}

type ErrorBody struct {
	Message string `json:"message" example:"Invalid JSON body"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes data inside a success envelope.
func WriteData(w http.ResponseWriter, code int, data any) {
	WriteJSON(w, code, Envelope{Status: StatusSuccess, Data: data})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// ErrInvalidJSON is returned by DecodeJSON for any body it cannot decode.
var ErrInvalidJSON = errors.New("httpx: invalid json body")

// DecodeJSON decodes a single JSON object from r into v. With strict set,
// unknown fields are rejected.
func DecodeJSON(r *http.Request, v any, strict bool) error {
	if r.Body == nil {
		return ErrInvalidJSON
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrInvalidJSON, err)
	}
	if dec.More() {
		return ErrInvalidJSON
	}
	return nil
}
