package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// -- Caller-facing --
	ErrValidation = errors.New("validation failed")
	ErrRateLimit  = errors.New("rate limit exceeded")
	ErrNoSession  = errors.New("shop session not found")

	// -- Upstream --
	ErrUpstreamAuth    = errors.New("upstream credential request failed")
	ErrUpstreamRequest = errors.New("upstream request failed")
	ErrParse           = errors.New("malformed upstream payload")

	// -- Resource State --
	ErrNotFound = errors.New("product not found")
)

// Error carries the failure kind plus whatever the upstream told us.
// Kind is always one of the sentinels above so errors.Is works on it.
type Error struct {
	Kind   error
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Body: fmt.Sprintf(format, args...)}
}

func UpstreamAuth(op string, status int, body string, err error) error {
	return &Error{Kind: ErrUpstreamAuth, Op: op, Status: status, Body: body, Err: err}
}

func UpstreamRequest(op string, status int, body string, err error) error {
	return &Error{Kind: ErrUpstreamRequest, Op: op, Status: status, Body: body, Err: err}
}

func Parse(op string, err error) error {
	return &Error{Kind: ErrParse, Op: op, Err: err}
}

func NotFound(op, id string) error {
	return &Error{Kind: ErrNotFound, Op: op, Body: id}
}

func NoSession(op string) error {
	return &Error{Kind: ErrNoSession, Op: op}
}

// HTTPStatus maps an error to the status code the inbound API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpstreamAuth),
		errors.Is(err, ErrUpstreamRequest),
		errors.Is(err, ErrParse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
