package blob

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindBackend Kind = iota
	KindConfiguration
	KindInvalidInput
	KindAuthorization
	KindNotFound
	KindCleanup
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInvalidInput:
		return "invalid_input"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindCleanup:
		return "cleanup"
	default:
		return "backend"
	}
}

// HTTPStatus maps a kind onto the status code returned by the HTTP layer.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindConfiguration:
		return http.StatusInternalServerError
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

type Error struct {
	Kind    Kind
	Op      string
	Key     string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Op != "" && e.Key != "":
		return fmt.Sprintf("%s %q: %s", e.Op, e.Key, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

func ConfigurationError(setting string) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf("missing or invalid setting %s", setting)}
}

func InvalidInput(op, msg string) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Message: msg}
}

func Unauthorized(op, msg string) *Error {
	return &Error{Kind: KindAuthorization, Op: op, Message: msg}
}

func NotFound(op, key string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Key: key, Message: "object not found"}
}

func Backend(op, key string, err error) *Error {
	return &Error{Kind: KindBackend, Op: op, Key: key, Err: err}
}

func CleanupFailure(op, key string, err error) *Error {
	return &Error{Kind: KindCleanup, Op: op, Key: key, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindBackend.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBackend
}

func is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func IsNotFound(err error) bool      { return is(err, KindNotFound) }
func IsInvalidInput(err error) bool  { return is(err, KindInvalidInput) }
func IsUnauthorized(err error) bool  { return is(err, KindAuthorization) }
func IsConfiguration(err error) bool { return is(err, KindConfiguration) }
