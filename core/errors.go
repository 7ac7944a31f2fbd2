package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnauthorized is matched (errors.Is) by any ServerError carrying a 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConnectionLost is reported when a live stream drops. Retrying is left to the screen.
	ErrConnectionLost = errors.New("connection lost")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is raised before any network call; it is never sent to the server.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err *ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) > 0 {
		return fmt.Sprintf("%s: %s", err.Fields[0].Field, err.Fields[0].Error)
	}
	return "validation failed"
}

// ServerError is a request the server answered and rejected.
type ServerError struct {
	Code    int
	Message string
}

func (err *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", err.Code, err.Message)
}

func (err *ServerError) Is(target error) bool {
	return target == ErrUnauthorized && err.Code == 401
}

// NetworkError is a request that got no response at all.
type NetworkError struct {
	Err error
}

func (err *NetworkError) Error() string {
	return "network error: " + err.Err.Error()
}

func (err *NetworkError) Unwrap() error { return err.Err }
