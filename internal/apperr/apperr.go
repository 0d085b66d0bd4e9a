package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure so handlers can pick a status code without
// inspecting internal error text.
type Kind int

const (
	// Unauthorized covers missing, invalid, expired or revoked credentials
	// and failed authentication attempts.
	Unauthorized Kind = iota
	// Forbidden means the credential is valid but the role or ownership
	// check for the target resource failed.
	Forbidden
	// NotFound means a referenced entity does not exist.
	NotFound
	// Validation covers malformed or missing request fields.
	Validation
	// Persistence covers connection and query failures unrelated to the
	// caller's input. Driver errors never cross the store boundary unwrapped.
	Persistence
	// Fulfillment means the external factory call did not succeed.
	Fulfillment
)

// Error is a classified service error. Message is safe to return to clients;
// Err carries the underlying cause for logs only.
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

// New builds a classified error with a client-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a classification and client-safe message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the classification of err, defaulting to Persistence for
// anything that was not classified on the way up.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Persistence
}

// Status maps a classified error to its HTTP-equivalent status code.
func Status(err error) int {
	switch KindOf(err) {
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusBadRequest
	case Fulfillment:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-safe message for err. Unclassified errors get a
// generic message so driver details are never leaked.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal server error"
}
