package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so outer layers can render it without string matching.
type Kind string

const (
	KindConfig   Kind = "config"
	KindAuth     Kind = "auth"
	KindQuota    Kind = "quota"
	KindNetwork  Kind = "network"
	KindNotFound Kind = "not_found"
	KindInternal Kind = "internal"
)

// Error is the typed error surfaced by the scraper core.
type Error struct {
	Kind    Kind   `json:"kind"`
	Op      string `json:"-"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind onto a response code for the HTTP layer.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindConfig:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindQuota:
		return http.StatusTooManyRequests
	case KindNetwork:
		return http.StatusBadGateway
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Config(op string, err error, message string) *Error {
	return &Error{Kind: KindConfig, Op: op, Message: message, Err: err}
}

func Auth(op string, err error, message string) *Error {
	return &Error{Kind: KindAuth, Op: op, Message: message, Err: err}
}

func Quota(op string, err error, message string) *Error {
	return &Error{Kind: KindQuota, Op: op, Message: message, Err: err}
}

func Network(op string, err error, message string) *Error {
	return &Error{Kind: KindNetwork, Op: op, Message: message, Err: err}
}

func NotFound(op string, err error, message string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message, Err: err}
}

func Internal(op string, err error, message string) *Error {
	return &Error{Kind: KindInternal, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
