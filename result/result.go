// Package result holds the error-propagation types shared by the board
// synchronization pipeline: a generic Result and the fetch-specific Outcome.
package result

import (
	"context"
	"errors"
	"fmt"
)

// ErrAborted marks a failure that must stop the surrounding computation
// instead of being captured into a Result.
var ErrAborted = errors.New("aborted")

// Result is either a value or an error.
type Result[T any] struct {
	value T
	err   error
}

func Value[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Error[T any](err error) Result[T] {
	if err == nil {
		panic("result: Error called with nil error")
	}
	return Result[T]{err: err}
}

func (r Result[T]) IsError() bool { return r.err != nil }
func (r Result[T]) Err() error    { return r.err }

// Unwrap returns the value and error as a conventional pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

func (r Result[T]) ValueOrZero() T {
	return r.value
}

// Try runs fn and captures its failure, including a panic, into the returned
// Result. Failures that wrap ErrAborted, context.Canceled or
// context.DeadlineExceeded are not captured; they are returned as the second
// value so the caller propagates them.
func Try[T any](fn func() (T, error)) (res Result[T], fatal error) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", r)
			}
			if IsFatal(err) {
				res, fatal = Result[T]{}, err
				return
			}
			res, fatal = Error[T](fmt.Errorf("recovered: %w", err)), nil
		}
	}()

	v, err := fn()
	if err != nil {
		if IsFatal(err) {
			return Result[T]{}, err
		}
		return Error[T](err), nil
	}
	return Value(v), nil
}

// IsFatal reports whether err must skip capture by Try.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAborted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
