package graphql

import (
	"errors"
	"fmt"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassTransport represents network and connectivity failures,
	// including timeouts and cancelled contexts.
	ErrorClassTransport ErrorClass = "transport"

	// ErrorClassServer represents non-2xx responses or a GraphQL errors payload.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassParse represents a response whose shape could not be decoded.
	ErrorClassParse ErrorClass = "parse"
)

// ErrEmptyQuery is returned when Do is called without a query document.
var ErrEmptyQuery = errors.New("graphql: empty query")

// Error represents a classified GraphQL request failure.
type Error struct {
	Class      ErrorClass
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	status := ""
	if e.StatusCode != 0 {
		status = fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("graphql %s error%s: %s: %v", e.Class, status, e.Message, e.Err)
	}
	return fmt.Sprintf("graphql %s error%s: %s", e.Class, status, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassOf returns the class of err. Errors that did not come from this
// package are treated as transport failures.
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ""
	}
	var gqlErr *Error
	if errors.As(err, &gqlErr) {
		return gqlErr.Class
	}
	return ErrorClassTransport
}

func transportError(msg string, err error) *Error {
	return &Error{Class: ErrorClassTransport, Message: msg, Err: err}
}

func serverError(status int, msg string) *Error {
	return &Error{Class: ErrorClassServer, StatusCode: status, Message: msg}
}

// ParseError builds a parse-class error. It is exported so response decoders
// outside this package (page fetchers) report malformed shapes uniformly.
func ParseError(msg string, err error) *Error {
	return &Error{Class: ErrorClassParse, Message: msg, Err: err}
}
