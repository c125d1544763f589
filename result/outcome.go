package result

import "fmt"

// Kind classifies a single fetch attempt.
type Kind int

// The zero Kind is KindUnknown so an Outcome that was never assigned is not
// mistaken for a success.
const (
	KindUnknown Kind = iota
	KindSuccess
	KindServerError
	KindTransportOrUnknownError
	KindDecodeError
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindSuccess:
		return "success"
	case KindServerError:
		return "server_error"
	case KindTransportOrUnknownError:
		return "transport_error"
	case KindDecodeError:
		return "decode_error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Outcome is the classified result of one fetch. Exactly one of its cases is
// active, chosen at construction.
type Outcome[T any] struct {
	kind       Kind
	value      T
	statusCode int
	cause      error
}

func Success[T any](v T) Outcome[T] {
	return Outcome[T]{kind: KindSuccess, value: v}
}

// ServerError records a completed round trip with a non-2xx status.
func ServerError[T any](statusCode int) Outcome[T] {
	return Outcome[T]{kind: KindServerError, statusCode: statusCode}
}

func TransportOrUnknownError[T any](cause error) Outcome[T] {
	return Outcome[T]{kind: KindTransportOrUnknownError, cause: cause}
}

// DecodeError records a 2xx response whose body could not be decoded.
func DecodeError[T any](cause error) Outcome[T] {
	return Outcome[T]{kind: KindDecodeError, cause: cause}
}

func (o Outcome[T]) Kind() Kind       { return o.kind }
func (o Outcome[T]) IsSuccess() bool  { return o.kind == KindSuccess }
func (o Outcome[T]) StatusCode() int  { return o.statusCode }
func (o Outcome[T]) Cause() error     { return o.cause }
func (o Outcome[T]) Value() (T, bool) { return o.value, o.kind == KindSuccess }

// Err returns nil for a success and a *FetchError otherwise.
func (o Outcome[T]) Err() error {
	if o.kind == KindSuccess {
		return nil
	}
	return &FetchError{Kind: o.kind, StatusCode: o.statusCode, Cause: o.cause}
}

// Map converts the value of a successful outcome. Error cases carry over
// unchanged.
func Map[T, U any](o Outcome[T], fn func(T) U) Outcome[U] {
	if o.kind == KindSuccess {
		return Success(fn(o.value))
	}
	return Outcome[U]{kind: o.kind, statusCode: o.statusCode, cause: o.cause}
}

// FetchError is the error form of a non-success Outcome.
type FetchError struct {
	Kind       Kind
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindServerError:
		return fmt.Sprintf("server error: HTTP %d", e.StatusCode)
	case KindDecodeError:
		return fmt.Sprintf("decode error: %v", e.Cause)
	case KindUnknown:
		return "no fetch outcome"
	default:
		return fmt.Sprintf("transport or unknown error: %v", e.Cause)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}
