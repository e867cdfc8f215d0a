// Package external marks failures of the managed collaborators the service
// depends on (record store, photo storage, PDF extraction, LLM) so callers can
// tell them apart from validation and programming errors.
package external

import (
	"errors"
	"fmt"
)

// Error is a failed call to an external collaborator.
type Error struct {
	Service string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns err as an *Error. A nil err stays nil and an existing *Error is
// returned unchanged.
func Wrap(service, op string, err error) error {
	if err == nil {
		return nil
	}
	var ext *Error
	if errors.As(err, &ext) {
		return err
	}
	return &Error{Service: service, Op: op, Err: err}
}

// Is reports whether err came from an external collaborator.
func Is(err error) bool {
	var ext *Error
	return errors.As(err, &ext)
}

// Result is the outcome of one external call: either Value or Err is set.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Call runs fn and packs its outcome, wrapping failures as *Error.
func Call[T any](service, op string, fn func() (T, error)) Result[T] {
	v, err := fn()
	if err != nil {
		var zero T
		return Result[T]{Value: zero, Err: Wrap(service, op, err)}
	}
	return Result[T]{Value: v}
}
