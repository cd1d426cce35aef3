package generic

import "fmt"

type Result[T any] struct {
	Value T
	Error error
}

// NewResult wraps a (T, error) return value from another function call as a Result[T].
func NewResult[T any](value T, err error) Result[T] {
	return Result[T]{Value: value, Error: err}
}

// Expect returns the contained value if IsOk(), or panics with the supplied error message and the contained error.
func (r Result[T]) Expect(msg string) T {
	if r.IsOk() {
		return r.Value
	}
	panic(fmt.Errorf("%s: %w", msg, r.Error))
}

func (r Result[T]) IsOk() bool {
	return r.Error == nil
}

// Unwrap returns the contained value, or panics if there is an error.
func (r Result[T]) Unwrap() T {
	return r.Expect("tried to Unwrap() an Err")
}

// Unwrap_ panics if err is non-nil, for call sites where an error is a programming mistake.
func Unwrap_(err error) {
	NewResult(NewVoid(), err).Unwrap()
}
