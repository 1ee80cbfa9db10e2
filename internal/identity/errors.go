package identity

import (
	"errors"
	"net/http"

	"github.com/aws/smithy-go"
)

// Kind classifies a failure for the response normalizer.
type Kind int

const (
	KindInternal Kind = iota
	KindParse
	KindRegistration
	KindConfirmation
	KindAuthentication
	KindReset
	KindSignOut
	KindMissingToken
	KindRouteNotFound
	KindMethodNotAllowed
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindRegistration:
		return "RegistrationError"
	case KindConfirmation:
		return "ConfirmationError"
	case KindAuthentication:
		return "AuthenticationError"
	case KindReset:
		return "ResetError"
	case KindSignOut:
		return "SignOutError"
	case KindMissingToken:
		return "MissingTokenError"
	case KindRouteNotFound:
		return "RouteNotFoundError"
	case KindMethodNotAllowed:
		return "MethodNotAllowedError"
	}
	return "InternalError"
}

// StatusCode is the HTTP status a failure of this kind is reported with.
func (k Kind) StatusCode() int {
	switch k {
	case KindParse, KindRegistration, KindConfirmation, KindAuthentication, KindReset, KindSignOut:
		return http.StatusBadRequest
	case KindMissingToken:
		return http.StatusUnauthorized
	case KindRouteNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	}
	return http.StatusInternalServerError
}

// Error is a classified failure. Its message is what the caller sees.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so the sentinels below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

var (
	ErrMissingToken     = &Error{Kind: KindMissingToken, Msg: "Missing bearer token"}
	ErrRouteNotFound    = &Error{Kind: KindRouteNotFound, Msg: "Not Found"}
	ErrMethodNotAllowed = &Error{Kind: KindMethodNotAllowed, Msg: "Method Not Allowed"}
)

// NewError builds a classified error with an explicit message.
func NewError(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal
// when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// providerError turns an SDK failure into a classified error. API errors keep
// the provider message verbatim; anything else is internal.
func providerError(kind Kind, op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.ErrorMessage()
		if msg == "" {
			msg = apiErr.ErrorCode()
		}
		return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
	}
	return &Error{Kind: KindInternal, Op: op, Msg: "internal error", Err: err}
}
