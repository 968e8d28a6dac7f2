package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// ValidationError collects one or more request-level problems. Operations
// returning it have made no writes.
type ValidationError struct {
	Errors []error `json:"errors"`
}

func (e *ValidationError) Add(err error) {
	e.Errors = append(e.Errors, err)
}

func (e *ValidationError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Errorf(format, args...))
}

func (e *ValidationError) HasError() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("%v", errors.Join(e.Errors...))
}

// PersistenceError wraps a store failure after every write of the failed
// operation has been rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func Persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
